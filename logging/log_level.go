package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Levels used by callers that don't import zapcore.
const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// ResolveLevel turns LOG_LEVEL into a zap level. An empty name gives the mode
// default: debug in development, info otherwise. "warning" is accepted as an
// alias; panic and fatal are not, since nothing here logs at those levels.
func ResolveLevel(name string, development bool) (zapcore.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		if development {
			return DebugLevel, nil
		}
		return InfoLevel, nil
	case "warning":
		name = "warn"
	}

	level, err := zapcore.ParseLevel(name)
	if err != nil || level > ErrorLevel {
		return InfoLevel, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", name)
	}
	return level, nil
}
