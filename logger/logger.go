package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logging interface used across the module.
// It hides the logrus backend so packages depend only on this API.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Fatal(msg string, err error, fields ...Field)

	// With returns a child logger that carries the given fields on
	// every subsequent entry.
	With(fields ...Field) Logger

	// Close releases any file handle owned by the logger.
	Close() error
}

type logrusLogger struct {
	backend *logrus.Logger
	file    *os.File
	preset  []Field
}

// New creates a logger from cfg. Logs go to stderr by default so that
// command stdout stays reserved for payload output.
func New(cfg Config) (Logger, error) {
	backend := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err)
	}
	backend.SetLevel(level)

	shortCaller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}
	switch strings.ToLower(cfg.Format) {
	case "json":
		backend.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: shortCaller,
		})
	case "text":
		backend.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: shortCaller,
		})
	default:
		return nil, fmt.Errorf("logger: unsupported format %q", cfg.Format)
	}
	backend.SetReportCaller(true)

	var file *os.File
	var writer io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr", "":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		file, err = openLogFile(cfg.Output)
		if err != nil {
			return nil, err
		}
		writer = file
	}

	if cfg.FilePath != "" && cfg.FilePath != cfg.Output {
		extra, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		writer = io.MultiWriter(writer, extra)
		if file == nil {
			file = extra
		}
	}
	backend.SetOutput(writer)

	return &logrusLogger{backend: backend, file: file}, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

// NewDefault creates a logger with the default configuration, falling
// back to a no-op logger if construction fails.
func NewDefault() Logger {
	l, err := New(DefaultConfig())
	if err != nil {
		return NewNoop()
	}
	return l
}

// NewNoop creates a logger that discards everything. Useful in tests.
func NewNoop() Logger {
	return &noopLogger{}
}

type noopLogger struct{}

func (n *noopLogger) Debug(msg string, fields ...Field)            {}
func (n *noopLogger) Info(msg string, fields ...Field)             {}
func (n *noopLogger) Warn(msg string, fields ...Field)             {}
func (n *noopLogger) Error(msg string, err error, fields ...Field) {}
func (n *noopLogger) Fatal(msg string, err error, fields ...Field) {}
func (n *noopLogger) With(fields ...Field) Logger                  { return n }
func (n *noopLogger) Close() error                                 { return nil }

func (l *logrusLogger) entry(fields []Field) *logrus.Entry {
	all := make(logrus.Fields, len(l.preset)+len(fields))
	for _, f := range l.preset {
		all[f.Key] = f.Value
	}
	for _, f := range fields {
		all[f.Key] = f.Value
	}
	return l.backend.WithFields(all)
}

func (l *logrusLogger) Debug(msg string, fields ...Field) {
	l.entry(fields).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields ...Field) {
	l.entry(fields).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields ...Field) {
	l.entry(fields).Warn(msg)
}

func (l *logrusLogger) Error(msg string, err error, fields ...Field) {
	entry := l.entry(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func (l *logrusLogger) Fatal(msg string, err error, fields ...Field) {
	entry := l.entry(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Fatal(msg)
}

func (l *logrusLogger) With(fields ...Field) Logger {
	return &logrusLogger{
		backend: l.backend,
		file:    nil, // child loggers do not own the file handle
		preset:  append(append([]Field{}, l.preset...), fields...),
	}
}

func (l *logrusLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
