package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// ErrSourceUnavailable is returned when a mandatory source file or table cannot be read.
var ErrSourceUnavailable = errors.New("source unavailable")

// Store wraps a read-only handle on one of the WhatsApp SQLite databases.
type Store struct {
	db   *sql.DB
	path string
	log  waLog.Logger
}

// Open opens the database at dbPath read-only. The file must already exist.
func Open(dbPath string, log waLog.Logger) (*Store, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, dbPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceUnavailable, dbPath)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_query_only=true")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrSourceUnavailable, dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrSourceUnavailable, dbPath, err)
	}

	return &Store{db: db, path: dbPath, log: log}, nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query executes a query that returns rows.
func (s *Store) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}
