// Package roster reads and writes the tabular user rosters fed to the
// onboarding run. CSV and XLSX files are supported; the format follows the
// file extension.
package roster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ColumnFirstName = "first_name"
	ColumnLastName  = "last_name"
	ColumnEmail     = "email"
	ColumnPassword  = "password"

	// OutputPrefix is prepended to the input file name for the updated roster.
	OutputPrefix = "updated_"
)

// RequiredColumns must be present in every roster header.
var RequiredColumns = []string{ColumnFirstName, ColumnLastName, ColumnEmail}

var (
	// ErrEmpty is returned when a roster has no header row.
	ErrEmpty = errors.New("roster: file has no header row")
	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("roster: unsupported file format")
)

// SchemaError reports required columns missing from the header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("roster: missing required columns: %s (must contain %s)",
		strings.Join(e.Missing, ", "), strings.Join(RequiredColumns, ", "))
}

// Table is an in-memory roster. Every row holds exactly len(Header) values.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a table, padding or trimming rows to the header width.
// Header names are trimmed; row values are kept as given. Only empty lines
// are dropped, so a row of bare separators still counts as a row.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: make([]string, len(header))}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		t.Header[i] = strings.TrimSpace(h)
	}
	t.reindex()
	for _, row := range rows {
		if emptyLine(row) {
			continue
		}
		t.Rows = append(t.Rows, fit(row, len(t.Header)))
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of name, or -1.
func (t *Table) Column(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	return -1
}

// Get returns the value of column name in row i, or "" when the column is absent.
func (t *Table) Get(i int, name string) string {
	idx := t.Column(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][idx]
}

// Set stores value into column name of row i, adding the column if needed.
func (t *Table) Set(i int, name, value string) {
	idx := t.EnsureColumn(name)
	t.Rows[i][idx] = value
}

// EnsureColumn appends name to the header when missing and returns its index.
func (t *Table) EnsureColumn(name string) int {
	if idx := t.Column(name); idx >= 0 {
		return idx
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	t.reindex()
	return len(t.Header) - 1
}

// Validate returns a *SchemaError when required columns are missing.
func (t *Table) Validate() error {
	var missing []string
	for _, col := range RequiredColumns {
		if t.Column(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// Load reads the roster at path and validates its schema.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("roster: open %s: %w", path, err)
	}
	defer f.Close()

	var t *Table
	switch format(path) {
	case formatCSV:
		t, err = ReadCSV(f)
	case formatXLSX:
		t, err = ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// OutputPath returns where the updated roster for input is written inside dir.
func OutputPath(input, dir string) string {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return filepath.Join(dir, OutputPrefix+filepath.Base(input))
}

type fileFormat int

const (
	formatUnknown fileFormat = iota
	formatCSV
	formatXLSX
)

func format(path string) fileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return formatCSV
	case ".xlsx":
		return formatXLSX
	}
	return formatUnknown
}

func emptyLine(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && row[0] == "")
}

func fit(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
