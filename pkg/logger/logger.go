package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the level and sinks of a logger.
type Options struct {
	// Level is parsed with zerolog.ParseLevel; unparseable values mean info.
	Level string
	// File, when set, receives JSON log lines in append mode.
	File string
	// Console writes human-readable output to Out (stderr when nil).
	Console bool
	Out     io.Writer
}

// Logger wraps a zerolog.Logger together with the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
	path string
}

// New builds a logger. With neither a file nor a console sink the logger
// discards everything.
func New(opts Options) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if opts.Console {
		out := opts.Out
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	l := &Logger{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		l.path = opts.File
		writers = append(writers, f)
	}

	if len(writers) == 0 {
		l.Logger = zerolog.Nop()
		return l, nil
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return l, nil
}

// DefaultCLIFile returns a timestamped log file under tmp/ so the terminal
// UI is never written over.
func DefaultCLIFile() string {
	return filepath.Join("tmp", fmt.Sprintf("cli-%s.log", time.Now().Format("20060102-150405")))
}

// Path returns the log file path, or "" when logging to the console only.
func (l *Logger) Path() string {
	return l.path
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
