package sink

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	waLog "go.mau.fi/whatsmeow/util/log"

	"wa-extract/internal/enrich"
	"wa-extract/internal/infra/config"
)

const defaultBatchSize = 1000

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Sink writes enriched records into a relational table.
type Sink struct {
	db        *sql.DB
	dialect   Dialect
	table     string
	batchSize int
	dedupe    bool
	log       waLog.Logger
}

// Options tunes insert behaviour.
type Options struct {
	BatchSize int  // rows per INSERT statement; defaults to 1000
	Dedupe    bool // skip records already present for the same cliente/estado/municipio
}

// Open connects to the server described by cfg and verifies the connection.
func Open(ctx context.Context, cfg config.SinkConfig, log waLog.Logger) (*Sink, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Name, dsn(dialect, cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s connection: %v", ErrSinkWrite, dialect.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to %s@%s: %v", ErrSinkWrite, cfg.User, cfg.Host, err)
	}

	s, err := New(db, dialect, cfg.Table, Options{BatchSize: cfg.BatchSize, Dedupe: cfg.Dedupe}, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *sql.DB, dialect Dialect, table string, opts Options, log waLog.Logger) (*Sink, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = defaultBatchSize
	}
	return &Sink{
		db:        db,
		dialect:   dialect,
		table:     table,
		batchSize: opts.BatchSize,
		dedupe:    opts.Dedupe,
		log:       log,
	}, nil
}

func dsn(d Dialect, cfg config.SinkConfig) string {
	port := cfg.Port
	if port == 0 {
		port = d.DefaultPort
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	if d.Name == "postgres" {
		u := &url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     addr,
			Path:     "/" + cfg.Database,
			RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
		}
		return u.String()
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = addr
	mc.DBName = cfg.Database
	mc.Apply(mysql.Charset("utf8mb4", ""))
	return mc.FormatDSN()
}

// Close closes the connection.
func (s *Sink) Close() error {
	return s.db.Close()
}

// EnsureTable creates the destination table if it does not exist.
func (s *Sink) EnsureTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable(s.table, enrich.Columns)); err != nil {
		return fmt.Errorf("%w: failed to create table %s: %v", ErrSinkWrite, s.table, err)
	}
	return nil
}

// BulkInsert inserts all records in one transaction and commits once.
// Any failure rolls the whole batch back. It returns the number of rows
// inserted, which is lower than len(records) only when dedupe skipped some.
func (s *Sink) BulkInsert(ctx context.Context, records []enrich.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to begin transaction: %v", ErrSinkWrite, err)
	}
	defer tx.Rollback()

	if s.dedupe {
		records, err = s.filterExisting(ctx, tx, records)
		if err != nil {
			return 0, err
		}
		if len(records) == 0 {
			s.log.Infof("All records already present in %s, nothing to insert", s.table)
			return 0, nil
		}
	}

	width := len(enrich.Columns)
	prefix := s.dialect.insertPrefix(s.table, enrich.Columns)

	for start := 0; start < len(records); start += s.batchSize {
		end := min(start+s.batchSize, len(records))
		batch := records[start:end]

		args := make([]any, 0, len(batch)*width)
		for _, r := range batch {
			args = append(args, r.Values()...)
		}

		query := prefix + s.dialect.valueTuples(len(batch), width)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("%w: insert rows %d-%d: %v", ErrSinkWrite, start, end-1, err)
		}
		s.log.Debugf("Inserted rows %d-%d into %s", start, end-1, s.table)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrSinkWrite, err)
	}
	return len(records), nil
}

// filterExisting drops records whose key already exists in the table for the
// same cliente/estado/municipio.
func (s *Sink) filterExisting(ctx context.Context, tx *sql.Tx, records []enrich.Record) ([]enrich.Record, error) {
	d := s.dialect
	first := records[0]

	query := "SELECT " + strings.Join([]string{
		d.quote("chat_row_id"),
		d.formatTS(d.quote("timestamp")),
		d.formatTS(d.quote("received_timestamp")),
		d.quote("from_me"),
		d.quote("text_data"),
	}, ", ") +
		" FROM " + d.quote(s.table) +
		" WHERE " + d.quote("cliente") + " = " + d.placeholder(1) +
		" AND " + d.quote("estado") + " = " + d.placeholder(2) +
		" AND " + d.quote("municipio") + " = " + d.placeholder(3)

	rows, err := tx.QueryContext(ctx, query, first.Cliente, first.Estado, first.Municipio)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read existing rows: %v", ErrSinkWrite, err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var chatRowID sql.NullInt64
		var ts, rts, text sql.NullString
		var fromMe sql.NullBool
		if err := rows.Scan(&chatRowID, &ts, &rts, &fromMe, &text); err != nil {
			return nil, fmt.Errorf("%w: failed to scan existing row: %v", ErrSinkWrite, err)
		}
		existing[dedupeKey(chatRowID.Int64, ts.String, rts.String, fromMe.Bool, text)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read existing rows: %v", ErrSinkWrite, err)
	}

	kept := records[:0:0]
	for _, r := range records {
		key := dedupeKey(r.ChatRowID,
			enrich.FormatTimestamp(r.Timestamp), enrich.FormatTimestamp(r.ReceivedTimestamp),
			r.FromMe, r.TextData)
		if _, ok := existing[key]; ok {
			continue
		}
		kept = append(kept, r)
	}
	if skipped := len(records) - len(kept); skipped > 0 {
		s.log.Infof("Skipping %d records already present in %s", skipped, s.table)
	}
	return kept, nil
}

func dedupeKey(chatRowID int64, ts, rts string, fromMe bool, text sql.NullString) string {
	t := "\x00"
	if text.Valid {
		t = text.String
	}
	return strings.Join([]string{strconv.FormatInt(chatRowID, 10), ts, rts, strconv.FormatBool(fromMe), t}, "\x1f")
}
