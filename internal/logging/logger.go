package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file created inside the logs directory.
const FileName = "onboard.log"

// Logger appends JSON lines to .onboard/logs/onboard.log so operators can
// inspect a run after the terminal output is gone. With verbose set, a
// human-readable copy at debug level also goes to the console writer.
type Logger struct {
	*zap.Logger
	file *os.File
}

// New creates (or reuses) the log file in logDir. console may be nil.
func New(logDir string, verbose bool, console io.Writer) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(f), level),
	}
	if verbose && console != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(console), level))
	}
	return &Logger{Logger: zap.New(zapcore.NewTee(cores...)), file: f}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Close flushes buffered entries and releases the file handle.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	if l.Logger != nil {
		_ = l.Logger.Sync()
	}
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
