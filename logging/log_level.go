package logging

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ParseLogLevel reads a level from the named environment variable.
// Empty or unrecognized values yield defaultLevel.
func ParseLogLevel(envVarName string, defaultLevel zapcore.Level) zapcore.Level {
	return ParseLogLevelString(os.Getenv(envVarName), defaultLevel)
}

// ParseLogLevelString accepts debug, info, warn (or warning) and error in
// any case. Levels that end the process (dpanic, panic, fatal) are not
// selectable and yield defaultLevel.
func ParseLogLevelString(levelStr string, defaultLevel zapcore.Level) zapcore.Level {
	s := strings.ToLower(strings.TrimSpace(levelStr))
	switch s {
	case "":
		// zapcore reads an empty level as info.
		return defaultLevel
	case "warning":
		s = "warn"
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil || level > zapcore.ErrorLevel {
		return defaultLevel
	}
	return level
}
