// Package log sets up the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// LevelTrace sits below slog's debug level; LevelNone silences everything.
const (
	LevelTrace = slog.Level(-8)
	LevelNone  = slog.Level(12)
)

// ParseLevel maps the -log-level flag values onto slog levels. Unknown
// values disable logging.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return LevelNone
	}
}

// fileWriter lets the log file be swapped underneath the handler.
type fileWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for '%s': %w", path, err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Write(p)
}

func (w *fileWriter) reopen() error {
	fh, err := openLogFile(w.path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	old := w.file
	w.file = fh
	w.mu.Unlock()
	return old.Close()
}

func (w *fileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Logger owns the output of the default slog logger.
type Logger struct {
	writer *fileWriter
	sigs   chan os.Signal
}

// InitLogger installs a JSON slog handler at level, writing to logFile or
// stderr. A log file that cannot be opened falls back to stderr.
func InitLogger(level string, logFile string) *Logger {
	l := &Logger{}
	var out io.Writer = os.Stderr

	if logFile != "" {
		fh, err := openLogFile(logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		} else {
			l.writer = &fileWriter{path: logFile, file: fh}
			out = l.writer
			l.setupLogRotation()
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: false,
		Level:     ParseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
	return l
}

// setupLogRotation reopens the log file on SIGHUP:
//
//	mv mika.log mika.bak && kill -HUP <pid>
func (l *Logger) setupLogRotation() {
	l.sigs = make(chan os.Signal, 1)
	signal.Notify(l.sigs, syscall.SIGHUP)
	go func(sigs <-chan os.Signal) {
		for range sigs {
			if err := l.writer.reopen(); err != nil {
				fmt.Fprintf(os.Stderr, "could not reopen log file: %v\n", err)
			}
		}
	}(l.sigs)
}

func (l *Logger) Close() {
	if l == nil {
		return
	}
	if l.sigs != nil {
		signal.Stop(l.sigs)
		close(l.sigs)
	}
	if l.writer != nil {
		_ = l.writer.Close()
	}
}
