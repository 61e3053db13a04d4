package roster

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer receives the updated roster one row at a time.
type Writer interface {
	Append(values []string) error
	Close() error
}

// Create opens a writer for path and writes header as the first row. CSV
// output is flushed after every row; XLSX output is saved on Close. Missing
// parent directories are created.
func Create(path string, header []string) (Writer, error) {
	if format(path) == formatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("roster: create output dir: %w", err)
	}
	var (
		w   Writer
		err error
	)
	switch format(path) {
	case formatCSV:
		w, err = createCSV(path, header)
	case formatXLSX:
		w, err = createXLSX(path, header)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}
