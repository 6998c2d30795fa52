package observability

import (
	"io"
	"log/slog"
	"os"
)

func NewLogger(env string) *slog.Logger {
	return NewLoggerTo(os.Stdout, env)
}

// NewLoggerTo builds the JSON logger on w. Every record is tagged with the
// service and env; trace, request and user ids are added per call from ctx.
func NewLoggerTo(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// never let a credential field reach the log stream
			if len(groups) == 0 && (a.Key == "password" || a.Key == "password_hash" || a.Key == "access_token") {
				return slog.String(a.Key, "[redacted]")
			}
			return a
		},
	})

	return slog.New(NewTraceHandler(handler)).With("service", "authhub", "env", env)
}
