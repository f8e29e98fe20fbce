package enrich

import (
	"database/sql"
	"strconv"
	"time"
)

// TimestampLayout is the representation used for both the CSV file and the
// relational table.
const TimestampLayout = "2006-01-02 15:04:05"

// Columns is the fixed output column order.
var Columns = []string{
	"chat_row_id",
	"timestamp",
	"received_timestamp",
	"text_data",
	"from_me",
	"number",
	"status",
	"verified_name",
	"description",
	"cliente",
	"estado",
	"municipio",
}

// Record is one enriched message. Invalid sql.NullString values are the
// single representation of an absent value.
type Record struct {
	ChatRowID         int64
	Timestamp         time.Time // UTC, millisecond precision
	ReceivedTimestamp time.Time // UTC, millisecond precision
	TextData          sql.NullString
	FromMe            bool

	Number       sql.NullString
	Status       sql.NullString
	VerifiedName sql.NullString
	Description  sql.NullString

	Cliente   string
	Estado    string
	Municipio string
}

// Values returns the record's twelve values in Columns order, with
// timestamps already formatted. Absent values are nil.
func (r Record) Values() []any {
	return []any{
		r.ChatRowID,
		FormatTimestamp(r.Timestamp),
		FormatTimestamp(r.ReceivedTimestamp),
		nullable(r.TextData),
		r.FromMe,
		nullable(r.Number),
		nullable(r.Status),
		nullable(r.VerifiedName),
		nullable(r.Description),
		r.Cliente,
		r.Estado,
		r.Municipio,
	}
}

// Strings returns the record as text cells in Columns order. Absent values
// are empty strings and from_me is rendered as 1 or 0.
func (r Record) Strings() []string {
	vals := r.Values()
	out := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = x
		case int64:
			out[i] = strconv.FormatInt(x, 10)
		case bool:
			if x {
				out[i] = "1"
			} else {
				out[i] = "0"
			}
		}
	}
	return out
}

// FormatTimestamp renders t in UTC with second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a value produced by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.UTC)
}

func nullable(ns sql.NullString) any {
	if !ns.Valid {
		return nil
	}
	return ns.String
}
