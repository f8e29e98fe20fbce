package source

import "database/sql"

// ChatIndexEntry maps an internal chat handle to its full JID.
type ChatIndexEntry struct {
	ID     int64
	RawJID string
}

// ChatIndex is the chat index in source order. A nil ChatIndex means the
// index was unavailable for this run.
type ChatIndex []ChatIndexEntry

// Message is one row of the message table, restricted to the extracted columns.
type Message struct {
	ChatRowID         sql.NullInt64
	Timestamp         sql.NullInt64 // epoch milliseconds
	ReceivedTimestamp sql.NullInt64 // epoch milliseconds
	TextData          sql.NullString
	FromMe            bool
}

// ContactRecord carries a contact's status keyed by bare phone number.
type ContactRecord struct {
	Number string
	Status sql.NullString
}

// NameRecord carries a business verified name keyed by bare phone number.
type NameRecord struct {
	Number       string
	VerifiedName sql.NullString
}

// DescriptionRecord carries a group description keyed by bare identifier.
type DescriptionRecord struct {
	Number      string
	Description sql.NullString
}

// Sources is everything read from both databases in one run.
type Sources struct {
	ChatIndex    ChatIndex
	Messages     []Message
	Contacts     []ContactRecord
	Names        []NameRecord
	Descriptions []DescriptionRecord
}

// Paths locates the two source databases.
type Paths struct {
	MsgStore string // msgstore.db: chat index and messages
	Contacts string // wa.db: contacts, descriptions, verified names

	// ChatIndexTable overrides the chat index table name. Defaults to chat_view.
	ChatIndexTable string
}
