package app

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"wa-extract/internal/infra/config"
	"wa-extract/internal/runconfig"
	"wa-extract/internal/source"
)

func createDB(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

// fixture writes both source databases and returns a dry-run config pointing at them.
func fixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.LogLevel = "ERROR"
	cfg.DryRun = true
	cfg.MsgStorePath = filepath.Join(dir, "msgstore.db")
	cfg.ContactsDBPath = filepath.Join(dir, "wa.db")
	cfg.OutputPath = filepath.Join(dir, "out", "messages_processed.csv")
	cfg.RunConfigPath = filepath.Join(dir, "config.txt")

	createDB(t, cfg.MsgStorePath,
		`CREATE TABLE chat_view (_id INTEGER, raw_string_jid TEXT)`,
		`INSERT INTO chat_view VALUES (1, '5551234567@s.whatsapp.net'), (2, '120363@g.us')`,
		`CREATE TABLE message (_id INTEGER PRIMARY KEY, chat_row_id INTEGER, from_me INTEGER,
			timestamp INTEGER, received_timestamp INTEGER, text_data TEXT)`,
		`INSERT INTO message (chat_row_id, from_me, timestamp, received_timestamp, text_data) VALUES
			(1, 0, 1700000000000, 1700000001000, 'Hi 😀'),
			(1, 1, 1700000002000, 1700000003000, NULL),
			(2, 1, 1700000004000, 1700000005000, 'Reunión 🎉 mañana'),
			(NULL, 0, 1700000006000, 1700000007000, 'orphan')`,
	)
	createDB(t, cfg.ContactsDBPath,
		`CREATE TABLE wa_contacts (jid TEXT, status TEXT)`,
		`INSERT INTO wa_contacts VALUES ('5551234567@s.whatsapp.net', 'Busy')`,
		`CREATE TABLE wa_group_descriptions (jid TEXT, description TEXT)`,
		`INSERT INTO wa_group_descriptions VALUES ('120363@g.us', 'Equipo ✅')`,
		`CREATE TABLE wa_vnames (jid TEXT, verified_name TEXT)`,
	)
	return cfg
}

func TestRunDryRun(t *testing.T) {
	cfg := fixture(t)

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var prompts bytes.Buffer
	sum, err := a.Run(context.Background(), strings.NewReader("Acme\nJalisco\nZapopan\n"), &prompts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Read != 4 || sum.Enriched != 2 || sum.Dropped != 1 || sum.Skipped != 1 || sum.Inserted != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.RunID == "" || sum.RunID != a.RunID {
		t.Errorf("run id = %q", sum.RunID)
	}
	if !strings.Contains(prompts.String(), "cliente") {
		t.Errorf("expected prompts on out, got %q", prompts.String())
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := "chat_row_id,timestamp,received_timestamp,text_data,from_me,number,status,verified_name,description,cliente,estado,municipio\n" +
		"1,2023-11-14 22:13:20,2023-11-14 22:13:21,Hi ,0,5551234567,Busy,,,Acme,Jalisco,Zapopan\n" +
		"2,2023-11-14 22:13:24,2023-11-14 22:13:25,Reunión  mañana,1,120363,,,Equipo ,Acme,Jalisco,Zapopan\n"
	if string(data) != want {
		t.Errorf("csv mismatch\ngot:\n%s\nwant:\n%s", data, want)
	}

	saved, err := os.ReadFile(cfg.RunConfigPath)
	if err != nil {
		t.Fatalf("run config not saved: %v", err)
	}
	if !strings.Contains(string(saved), "cliente=Acme") {
		t.Errorf("saved run config = %q", saved)
	}
}

func TestRunReusesSavedRunConfig(t *testing.T) {
	cfg := fixture(t)
	if err := os.WriteFile(cfg.RunConfigPath, []byte("cliente=Beta\nestado=X\nmunicipio=Y\n"), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var prompts bytes.Buffer
	if _, err := a.Run(context.Background(), strings.NewReader(""), &prompts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if prompts.Len() != 0 {
		t.Errorf("should not prompt when config exists, got %q", prompts.String())
	}

	data, _ := os.ReadFile(cfg.OutputPath)
	if !strings.Contains(string(data), ",Beta,X,Y\n") {
		t.Errorf("csv missing stamped metadata:\n%s", data)
	}
}

func TestRunMissingSource(t *testing.T) {
	cfg := fixture(t)
	cfg.MsgStorePath = filepath.Join(t.TempDir(), "absent.db")

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.Run(context.Background(), strings.NewReader("A\nB\nC\n"), &bytes.Buffer{})
	if !errors.Is(err, source.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if _, statErr := os.Stat(cfg.OutputPath); !os.IsNotExist(statErr) {
		t.Errorf("csv should not be written when a source is missing")
	}
}

func TestRunConfigAbortsBeforeRead(t *testing.T) {
	cfg := fixture(t)
	if err := os.WriteFile(cfg.RunConfigPath, []byte("cliente=A\n"), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.Run(context.Background(), strings.NewReader(""), &bytes.Buffer{})
	if !errors.Is(err, runconfig.ErrMalformedConfig) {
		t.Fatalf("expected ErrMalformedConfig, got %v", err)
	}
}

func TestRunPushesMetrics(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := fixture(t)
	cfg.Metrics.PushgatewayURL = srv.URL

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Run(context.Background(), strings.NewReader("A\nB\nC\n"), &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if path != "/metrics/job/wa_extract/run_id/"+a.RunID {
		t.Errorf("push path = %q", path)
	}
}

func TestNewValidates(t *testing.T) {
	cfg := config.Default()
	if _, err := New(cfg); err == nil {
		t.Error("expected error when the sink has no host and dry_run is off")
	}
}
