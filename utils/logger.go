package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// LogOptions selects the handler behind a Logger.
type LogOptions struct {
	// Writer defaults to os.Stdout.
	Writer  io.Writer
	Verbose bool
	JSON    bool
	NoColor bool
}

// Logger provides leveled, printf-style logging throughout the application.
// Records go through log/slog so attributes added with With are structured.
type Logger struct {
	sl *slog.Logger
}

// NewLogger builds a Logger. Verbose enables debug output.
func NewLogger(opts LogOptions) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    opts.NoColor,
		})
	}
	return &Logger{sl: slog.New(handler)}
}

// NopLogger discards everything. Handy in tests.
func NopLogger() *Logger {
	return NewLogger(LogOptions{Writer: io.Discard, NoColor: true})
}

// With returns a Logger that stamps every line with the given key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...)}
}

func (l *Logger) Info(format string, args ...any) {
	l.sl.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.sl.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.sl.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.sl.Debug(fmt.Sprintf(format, args...))
}
