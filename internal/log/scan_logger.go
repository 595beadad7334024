package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// logFileTimeFormat names the per-run log file.
	logFileTimeFormat = "2006-01-02_15-04-05"

	// lineTimeFormat prefixes each line written to the log file.
	lineTimeFormat = "2006-01-02 15:04:05.000"
)

// ScanLogger writes probe outcome lines to a per-run log file and echoes
// them to the console. It is safe for concurrent use.
type ScanLogger struct {
	mu      sync.Mutex
	file    io.WriteCloser
	console io.Writer
	path    string

	// now is replaceable for tests.
	now func() time.Time
}

// NewScanLogger creates dir if needed and opens <dir>/<timestamp>_scan.log.
// If dir is empty, lines only go to the console. A nil console disables the echo.
func NewScanLogger(dir string, console io.Writer) (*ScanLogger, error) {
	l := &ScanLogger{
		console: console,
		now:     time.Now,
	}
	if dir == "" {
		return l, nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, l.now().Format(logFileTimeFormat)+"_scan.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // Path is built from the configured log dir
	if err != nil {
		return nil, fmt.Errorf("failed to open scan log: %w", err)
	}

	l.file = f
	l.path = path
	return l, nil
}

// Info records one line.
// Write failures are ignored: losing a log line must never stop a scan.
func (l *ScanLogger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.console != nil {
		_, _ = fmt.Fprintln(l.console, msg)
	}
	if l.file != nil {
		_, _ = fmt.Fprintf(l.file, "%s %s\n", l.now().Format(lineTimeFormat), msg)
	}
}

// Path returns the log file path, or "" when no file is written.
func (l *ScanLogger) Path() string {
	return l.path
}

// Close closes the log file.
func (l *ScanLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
