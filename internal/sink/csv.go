package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"wa-extract/internal/enrich"
)

// ErrSinkWrite marks a failed write to either sink.
var ErrSinkWrite = errors.New("sink write failed")

// WriteCSV writes the header and one line per record to path, replacing any
// existing file.
func WriteCSV(path string, records []enrich.Record) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create %s: %v", ErrSinkWrite, dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrSinkWrite, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: failed to close %s: %v", ErrSinkWrite, path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(enrich.Columns); err != nil {
		return fmt.Errorf("%w: header: %v", ErrSinkWrite, err)
	}
	for i, r := range records {
		if err := w.Write(r.Strings()); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrSinkWrite, i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrSinkWrite, path, err)
	}
	return nil
}
