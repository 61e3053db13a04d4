package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadCSV parses a CSV roster with a header row. Cell values are kept
// verbatim; schema is not checked.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("roster: read csv header: %w", err)
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("roster: read csv rows: %w", err)
	}
	return NewTable(header, rows), nil
}

type csvWriter struct {
	file *os.File
	w    *csv.Writer
}

func createCSV(path string, header []string) (*csvWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("roster: create %s: %w", path, err)
	}
	cw := &csvWriter{file: f, w: csv.NewWriter(f)}
	if err := cw.Append(header); err != nil {
		f.Close()
		return nil, err
	}
	return cw, nil
}

// Append writes one record and flushes it to disk.
func (c *csvWriter) Append(values []string) error {
	if err := c.w.Write(values); err != nil {
		return fmt.Errorf("roster: write csv row: %w", err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("roster: flush csv row: %w", err)
	}
	return nil
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	flushErr := c.w.Error()
	closeErr := c.file.Close()
	if flushErr != nil {
		return fmt.Errorf("roster: flush csv: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("roster: close csv: %w", closeErr)
	}
	return nil
}
