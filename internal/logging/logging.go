package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process logger, installs it as the slog default, and
// returns it. Every line carries the service attribute so log shippers
// can split this service out from co-located ones.
func Setup(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler).With("service", "unisettle")
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level. Matching is
// case-insensitive and ignores surrounding whitespace; unrecognized
// names fall back to info so a typo in UNISETTLE_LOG_LEVEL never
// silences the log.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
