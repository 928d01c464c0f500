package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger. LOG_LEVEL picks the level (debug, info,
// warn, error; default info) and LOG_FORMAT=json switches to JSON output.
// Every record carries the service name.
func New(service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level(os.Getenv("LOG_LEVEL"))}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With(slog.String("service", service))
}

func level(raw string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return l
}
