package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	waLog "go.mau.fi/whatsmeow/util/log"

	"wa-extract/internal/utils/jid"
)

const defaultChatIndexTable = "chat_view"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ReadSources reads the chat index and messages from the message store and the
// three contact tables from the contacts database. Both handles are closed
// before returning. A missing chat index is not an error; the returned
// Sources then has a nil ChatIndex.
func ReadSources(ctx context.Context, paths Paths, log waLog.Logger) (*Sources, error) {
	table := paths.ChatIndexTable
	if table == "" {
		table = defaultChatIndexTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid chat index table name %q", table)
	}

	out := &Sources{}

	if err := readMsgStore(ctx, paths.MsgStore, table, out, log); err != nil {
		return nil, err
	}
	if err := readContacts(ctx, paths.Contacts, out, log); err != nil {
		return nil, err
	}

	return out, nil
}

func readMsgStore(ctx context.Context, path, chatTable string, out *Sources, log waLog.Logger) error {
	s, err := Open(path, log)
	if err != nil {
		return err
	}
	defer s.Close()

	idx, err := s.ChatIndex(ctx, chatTable)
	if err != nil {
		log.Warnf("Chat index unavailable (%v), phone numbers will be empty", err)
		idx = nil
	} else if len(idx) == 0 {
		log.Warnf("Chat index %s is empty, phone numbers will be empty", chatTable)
		idx = nil
	} else {
		log.Infof("Read %d chat index entries", len(idx))
		logKinds(idx, log)
	}
	out.ChatIndex = idx

	out.Messages, err = s.Messages(ctx)
	if err != nil {
		return err
	}
	log.Infof("Read %d messages from %s", len(out.Messages), path)
	return nil
}

func readContacts(ctx context.Context, path string, out *Sources, log waLog.Logger) error {
	s, err := Open(path, log)
	if err != nil {
		return err
	}
	defer s.Close()

	if out.Contacts, err = s.Contacts(ctx); err != nil {
		return err
	}
	if out.Descriptions, err = s.Descriptions(ctx); err != nil {
		return err
	}
	if out.Names, err = s.VerifiedNames(ctx); err != nil {
		return err
	}
	log.Infof("Read %d contacts, %d descriptions, %d verified names from %s",
		len(out.Contacts), len(out.Descriptions), len(out.Names), path)
	return nil
}

// ChatIndex reads (_id, raw_string_jid) from the given table in source order.
func (s *Store) ChatIndex(ctx context.Context, table string) (ChatIndex, error) {
	rows, err := s.Query(ctx, `SELECT _id, raw_string_jid FROM `+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var idx ChatIndex
	skipped := 0
	for rows.Next() {
		var id sql.NullInt64
		var raw sql.NullString
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		if !id.Valid {
			skipped++
			continue
		}
		idx = append(idx, ChatIndexEntry{ID: id.Int64, RawJID: raw.String})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.log.Debugf("Skipped %d %s rows with no _id", skipped, table)
	}
	return idx, nil
}

// Messages reads the message table.
func (s *Store) Messages(ctx context.Context) ([]Message, error) {
	rows, err := s.Query(ctx, `
		SELECT chat_row_id, timestamp, received_timestamp, text_data, from_me
		FROM message
	`)
	if err != nil {
		return nil, unavailable(s, "message", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var fromMe sql.NullInt64
		if err := rows.Scan(&m.ChatRowID, &m.Timestamp, &m.ReceivedTimestamp, &m.TextData, &fromMe); err != nil {
			return nil, unavailable(s, "message", err)
		}
		m.FromMe = intToBool(fromMe)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(s, "message", err)
	}
	return msgs, nil
}

// Contacts reads wa_contacts keyed by bare phone number.
func (s *Store) Contacts(ctx context.Context) ([]ContactRecord, error) {
	var out []ContactRecord
	err := s.readKeyed(ctx, "wa_contacts", "status", func(number string, v sql.NullString) {
		out = append(out, ContactRecord{Number: number, Status: v})
	})
	return out, err
}

// Descriptions reads wa_group_descriptions keyed by bare identifier.
func (s *Store) Descriptions(ctx context.Context) ([]DescriptionRecord, error) {
	var out []DescriptionRecord
	err := s.readKeyed(ctx, "wa_group_descriptions", "description", func(number string, v sql.NullString) {
		out = append(out, DescriptionRecord{Number: number, Description: v})
	})
	return out, err
}

// VerifiedNames reads wa_vnames keyed by bare phone number.
func (s *Store) VerifiedNames(ctx context.Context) ([]NameRecord, error) {
	var out []NameRecord
	err := s.readKeyed(ctx, "wa_vnames", "verified_name", func(number string, v sql.NullString) {
		out = append(out, NameRecord{Number: number, VerifiedName: v})
	})
	return out, err
}

// readKeyed reads (jid, column) from table, strips the jid domain and calls fn
// per row in source order. Rows with a NULL jid are skipped.
func (s *Store) readKeyed(ctx context.Context, table, column string, fn func(string, sql.NullString)) error {
	rows, err := s.Query(ctx, `SELECT jid, `+column+` FROM `+table)
	if err != nil {
		return unavailable(s, table, err)
	}
	defer rows.Close()

	skipped := 0
	for rows.Next() {
		var raw, value sql.NullString
		if err := rows.Scan(&raw, &value); err != nil {
			return unavailable(s, table, err)
		}
		if !raw.Valid {
			skipped++
			continue
		}
		fn(jid.Bare(raw.String), value)
	}
	if err := rows.Err(); err != nil {
		return unavailable(s, table, err)
	}
	if skipped > 0 {
		s.log.Debugf("Skipped %d %s rows with no jid", skipped, table)
	}
	return nil
}

func logKinds(idx ChatIndex, log waLog.Logger) {
	kinds := make(map[jid.Kind]int)
	for _, e := range idx {
		kinds[jid.Classify(e.RawJID)]++
	}
	log.Debugf("Chat index kinds: %v", kinds)
}

func unavailable(s *Store, table string, err error) error {
	return fmt.Errorf("%w: %s in %s: %v", ErrSourceUnavailable, table, s.Path(), err)
}

func intToBool(n sql.NullInt64) bool {
	return n.Valid && n.Int64 != 0
}
