package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Setup installs a text-handler slog logger as the process default and
// returns it. Reports print to stdout on their own; the logger carries
// diagnostics only, so it writes wherever the caller points it
// (normally stderr).
func Setup(level string, w io.Writer) *slog.Logger {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a level name to a slog.Level. Unknown names fall
// back to info rather than failing, matching the --log-level contract.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
