package enrich

import (
	"database/sql"

	"wa-extract/internal/source"
	"wa-extract/internal/utils/jid"
)

// Resolver maps an internal chat handle to a bare phone number.
type Resolver struct {
	byID map[int64]string
}

// NewResolver indexes the chat index. For duplicate ids the first entry in
// source order wins. A nil index yields a Resolver that never matches.
func NewResolver(idx source.ChatIndex) *Resolver {
	r := &Resolver{byID: make(map[int64]string, len(idx))}
	for _, e := range idx {
		if _, seen := r.byID[e.ID]; seen {
			continue
		}
		r.byID[e.ID] = jid.Bare(e.RawJID)
	}
	return r
}

// Resolve returns the bare phone number for chatRowID, or null.
func (r *Resolver) Resolve(chatRowID int64) sql.NullString {
	number, ok := r.byID[chatRowID]
	if !ok || number == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: number, Valid: true}
}

// lookup is a left-join side keyed by bare phone number. The first row per
// key wins so that a join never multiplies rows.
type lookup map[string]sql.NullString

func (l lookup) add(key string, v sql.NullString) {
	if _, seen := l[key]; seen {
		return
	}
	l[key] = v
}

// get returns the joined value for number. A null number, a miss and a NULL
// cell all come back as the same invalid NullString.
func (l lookup) get(number sql.NullString) sql.NullString {
	if !number.Valid {
		return sql.NullString{}
	}
	v, ok := l[number.String]
	if !ok || !v.Valid {
		return sql.NullString{}
	}
	return v
}

func contactLookup(rows []source.ContactRecord) lookup {
	l := make(lookup, len(rows))
	for _, r := range rows {
		l.add(r.Number, r.Status)
	}
	return l
}

func nameLookup(rows []source.NameRecord) lookup {
	l := make(lookup, len(rows))
	for _, r := range rows {
		l.add(r.Number, r.VerifiedName)
	}
	return l
}

func descriptionLookup(rows []source.DescriptionRecord) lookup {
	l := make(lookup, len(rows))
	for _, r := range rows {
		l.add(r.Number, r.Description)
	}
	return l
}
