package sink

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wa-extract/internal/enrich"
)

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "messages_processed.csv")

	a := record(1, "Hi ")
	a.Status = sql.NullString{String: "Busy", Valid: true}
	b := record(2, "dice \"hola\", adiós")
	b.FromMe = true
	b.Number = sql.NullString{}

	if err := WriteCSV(path, []enrich.Record{a, b}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := "chat_row_id,timestamp,received_timestamp,text_data,from_me,number,status,verified_name,description,cliente,estado,municipio\n" +
		"1,2023-11-14 22:13:20,2023-11-14 22:13:21,Hi ,0,5551234567,Busy,,,Acme,X,Y\n" +
		"2,2023-11-14 22:13:20,2023-11-14 22:13:21,\"dice \"\"hola\"\", adiós\",1,,,,,Acme,X,Y\n"
	if string(data) != want {
		t.Errorf("csv mismatch\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := WriteCSV(path, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "chat_row_id,timestamp,received_timestamp,text_data,from_me,number,status,verified_name,description,cliente,estado,municipio\n"
	if string(data) != want {
		t.Errorf("got %q", data)
	}
}

func TestWriteCSVReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("stale content that is longer than the header line for sure, really\n\n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := WriteCSV(path, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	data, _ := os.ReadFile(path)
	if len(data) == 0 || data[0] != 'c' || data[len(data)-2] != 'o' {
		t.Errorf("file not replaced: %q", data)
	}
}

func TestWriteCSVUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	err := WriteCSV(filepath.Join(blocker, "out.csv"), nil)
	if !errors.Is(err, ErrSinkWrite) {
		t.Fatalf("expected ErrSinkWrite, got %v", err)
	}
}
