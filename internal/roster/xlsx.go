package roster

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses the first sheet of a workbook. Row 1 is the header.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("roster: open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("roster: workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("roster: read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return NewTable(rows[0], rows[1:]), nil
}

// xlsxWriter keeps rows in a workbook and saves it on Close.
type xlsxWriter struct {
	path  string
	file  *excelize.File
	sheet string
	next  int
}

func createXLSX(path string, header []string) (*xlsxWriter, error) {
	f := excelize.NewFile()
	xw := &xlsxWriter{path: path, file: f, sheet: f.GetSheetName(0), next: 1}
	if err := xw.Append(header); err != nil {
		f.Close()
		return nil, err
	}
	return xw, nil
}

func (x *xlsxWriter) Append(values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, x.next)
	if err != nil {
		return fmt.Errorf("roster: xlsx cell: %w", err)
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := x.file.SetSheetRow(x.sheet, cell, &row); err != nil {
		return fmt.Errorf("roster: write xlsx row %d: %w", x.next, err)
	}
	x.next++
	return nil
}

func (x *xlsxWriter) Close() error {
	saveErr := x.file.SaveAs(x.path)
	closeErr := x.file.Close()
	if saveErr != nil {
		return fmt.Errorf("roster: save %s: %w", x.path, saveErr)
	}
	return closeErr
}
