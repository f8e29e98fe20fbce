// Package enrich turns raw message rows into output records: it drops
// messages without text, normalizes timestamps, resolves the chat's phone
// number, left-joins contact metadata, strips emoji and stamps the run
// metadata.
package enrich

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wa-extract/internal/runconfig"
	"wa-extract/internal/source"
)

// ErrRowEnrichment marks a single message that could not be transformed.
var ErrRowEnrichment = errors.New("row enrichment failed")

// Supported timestamp range. Both the fixed four-digit layout and a DATETIME
// column need a year in [1000, 9999].
var (
	minTimestamp = time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, 12, 31, 23, 59, 59, 999_000_000, time.UTC)
)

// RowError describes a skipped message.
type RowError struct {
	Index     int   // position in the input message slice
	ChatRowID int64 // 0 when the message had no chat_row_id
	Err       error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("message %d (chat %d): %v", e.Index, e.ChatRowID, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{ErrRowEnrichment, e.Err}
}

// Input is everything the pipeline reads. ChatIndex may be nil.
type Input struct {
	Messages     []source.Message
	ChatIndex    source.ChatIndex
	Contacts     []source.ContactRecord
	Names        []source.NameRecord
	Descriptions []source.DescriptionRecord
}

// InputFrom adapts the reader's output.
func InputFrom(s *source.Sources) Input {
	return Input{
		Messages:     s.Messages,
		ChatIndex:    s.ChatIndex,
		Contacts:     s.Contacts,
		Names:        s.Names,
		Descriptions: s.Descriptions,
	}
}

// Result is the pipeline output.
type Result struct {
	Records []Record
	Dropped int        // messages without text
	Skipped []RowError // messages that failed transformation
}

// Enrich runs the full pipeline over in. It never fails as a whole; rows that
// cannot be transformed are reported in Result.Skipped.
func Enrich(in Input, rc runconfig.RunConfig) Result {
	resolver := NewResolver(in.ChatIndex)
	contacts := contactLookup(in.Contacts)
	names := nameLookup(in.Names)
	descriptions := descriptionLookup(in.Descriptions)

	res := Result{Records: make([]Record, 0, len(in.Messages))}

	for i, m := range in.Messages {
		if !m.TextData.Valid {
			res.Dropped++
			continue
		}

		rec, err := project(m)
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Index: i, ChatRowID: m.ChatRowID.Int64, Err: err})
			continue
		}

		rec.Number = resolver.Resolve(rec.ChatRowID)
		rec.Status = contacts.get(rec.Number)
		rec.VerifiedName = names.get(rec.Number)
		rec.Description = descriptions.get(rec.Number)

		rec.TextData = StripEmojiNull(rec.TextData)
		rec.Description = StripEmojiNull(rec.Description)

		rec.Cliente = rc.Client
		rec.Estado = rc.Region
		rec.Municipio = rc.SubRegion

		res.Records = append(res.Records, rec)
	}

	return res
}

// project keeps the extracted columns and converts the epoch timestamps.
func project(m source.Message) (Record, error) {
	if !m.ChatRowID.Valid {
		return Record{}, errors.New("missing chat_row_id")
	}
	sent, err := epochMillis(m.Timestamp, "timestamp")
	if err != nil {
		return Record{}, err
	}
	received, err := epochMillis(m.ReceivedTimestamp, "received_timestamp")
	if err != nil {
		return Record{}, err
	}
	return Record{
		ChatRowID:         m.ChatRowID.Int64,
		Timestamp:         sent,
		ReceivedTimestamp: received,
		TextData:          m.TextData,
		FromMe:            m.FromMe,
	}, nil
}

// ToTime converts epoch milliseconds to a UTC time, failing outside the
// supported range.
func ToTime(ms int64) (time.Time, error) {
	t := time.UnixMilli(ms).UTC()
	if t.Before(minTimestamp) || t.After(maxTimestamp) {
		return time.Time{}, fmt.Errorf("epoch %dms out of range", ms)
	}
	return t, nil
}

func epochMillis(v sql.NullInt64, column string) (time.Time, error) {
	if !v.Valid {
		return time.Time{}, fmt.Errorf("%s is NULL", column)
	}
	t, err := ToTime(v.Int64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", column, err)
	}
	return t, nil
}
