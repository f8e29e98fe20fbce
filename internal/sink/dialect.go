package sink

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect captures the SQL differences between the supported servers.
type Dialect struct {
	Name        string
	DefaultPort int

	quote       func(ident string) string
	placeholder func(n int) string // n is 1-based
	serialKey   string
	tsType      string
	formatTS    func(col string) string // render a DATETIME column as TimestampLayout
}

var (
	MySQL = Dialect{
		Name:        "mysql",
		DefaultPort: 3306,
		quote:       func(s string) string { return "`" + s + "`" },
		placeholder: func(int) string { return "?" },
		serialKey:   "id INT AUTO_INCREMENT PRIMARY KEY",
		tsType:      "DATETIME",
		formatTS: func(col string) string {
			return "DATE_FORMAT(" + col + ", '%Y-%m-%d %H:%i:%s')"
		},
	}

	Postgres = Dialect{
		Name:        "postgres",
		DefaultPort: 5432,
		quote:       pq.QuoteIdentifier,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		serialKey:   "id SERIAL PRIMARY KEY",
		tsType:      "TIMESTAMP",
		formatTS: func(col string) string {
			return "to_char(" + col + ", 'YYYY-MM-DD HH24:MI:SS')"
		},
	}
)

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "", "mysql":
		return MySQL, nil
	case "postgres":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sink driver %q", driver)
	}
}

// columnTypes follows enrich.Columns.
func (d Dialect) columnTypes() []string {
	return []string{
		"INT",
		d.tsType,
		d.tsType,
		"TEXT",
		"BOOLEAN",
		"VARCHAR(255)",
		"VARCHAR(255)",
		"VARCHAR(255)",
		"TEXT",
		"VARCHAR(255)",
		"VARCHAR(255)",
		"VARCHAR(255)",
	}
}

// createTable returns the CREATE TABLE IF NOT EXISTS statement.
func (d Dialect) createTable(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(d.quote(table))
	b.WriteString(" (\n    ")
	b.WriteString(d.serialKey)
	types := d.columnTypes()
	for i, col := range columns {
		b.WriteString(",\n    ")
		b.WriteString(d.quote(col))
		b.WriteString(" ")
		b.WriteString(types[i])
	}
	b.WriteString("\n)")
	return b.String()
}

// insertPrefix returns "INSERT INTO t (c1, ...) VALUES ".
func (d Dialect) insertPrefix(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.quote(c)
	}
	return "INSERT INTO " + d.quote(table) + " (" + strings.Join(quoted, ", ") + ") VALUES "
}

// valueTuples returns rows tuples of width placeholders each, numbered from 1.
func (d Dialect) valueTuples(rows, width int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := 0; c < width; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.placeholder(n))
			n++
		}
		b.WriteString(")")
	}
	return b.String()
}
