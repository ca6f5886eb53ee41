package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger writes JSON to stdout; service names the binary in every line.
func NewLogger(service, env string) *slog.Logger {
	return newLogger(os.Stdout, service, env)
}

func newLogger(w io.Writer, service, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(handler, service, env))
}
