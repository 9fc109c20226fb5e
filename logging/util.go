package logging

import (
	"log/slog"
	"strings"
)

// ParseLevel maps a configured level name to a slog level, defaulting to
// info for anything unrecognized.
func ParseLevel(str string) slog.Level {
	switch strings.ToUpper(str) {
	case slog.LevelDebug.String():
		return slog.LevelDebug
	case slog.LevelInfo.String():
		return slog.LevelInfo
	case slog.LevelWarn.String():
		return slog.LevelWarn
	case slog.LevelError.String():
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
