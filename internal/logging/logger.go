// Package logging builds the structured logger shared by every component of
// the ingestion engine.
package logging

import (
	"io"
	"log/slog"
	"time"
)

// New builds a *slog.Logger for the given environment and level.
// "prod" gets JSON output with RFC3339Nano timestamps; anything else gets
// human-readable text output.
func New(w io.Writer, env string, level string) *slog.Logger {
	var h slog.Handler

	l := new(slog.LevelVar) // info by default
	switch level {
	case "debug":
		l.Set(slog.LevelDebug)
	case "warn":
		l.Set(slog.LevelWarn)
	case "error":
		l.Set(slog.LevelError)
	case "", "info":
		// default
	default:
		slog.Default().Warn("invalid log level, using default level: info", slog.String("value", level))
	}

	switch env {
	case "prod", "production":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: l,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})
	}

	return slog.New(h)
}
