package logger

import (
	"io"
	"log/slog"
	"os"
)

var Logger = slog.Default()

// Init installs a text logger on stdout as the process default.
func Init(debug bool) {
	Logger = New(os.Stdout, debug)
	slog.SetDefault(Logger)
}

// New builds a text logger writing to w.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// With tags l, or the process default when l is nil, with the component name.
func With(l *slog.Logger, component string) *slog.Logger {
	return OrDefault(l).With("component", component)
}

// OrDefault returns l, or the process default when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
