package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
)

// NewMultiCore creates a core that tees the console (stderr) and, when
// filePath is non-empty, a rotated JSON log file.
//
// The file is opened once up front so that an unwritable path fails at
// startup instead of on the first log entry.
func NewMultiCore(level zapcore.Level, filePath string, isDev bool) (zapcore.Core, error) {
	if filePath == "" {
		return newConsoleCore(level, stderrSyncer(), isDev), nil
	}

	if err := checkWritable(filePath); err != nil {
		return nil, err
	}

	return NewMultiCoreWithWriters(level, stderrSyncer(), NewFileWriter(filePath), isDev), nil
}

// NewMultiCoreWithWriters creates a core that tees to the provided writers.
// The file side always encodes JSON; the console side is colored text in
// development mode and JSON otherwise.
//
// Example:
//
//	var console, file bytes.Buffer
//	core := NewMultiCoreWithWriters(zapcore.DebugLevel, zapcore.AddSync(&console), zapcore.AddSync(&file), true)
//	logger := zap.New(core)
func NewMultiCoreWithWriters(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		fileWriter,
		level,
	)

	return zapcore.NewTee(newConsoleCore(level, consoleWriter, isDev), fileCore)
}

func newConsoleCore(level zapcore.Level, w zapcore.WriteSyncer, isDev bool) zapcore.Core {
	var encoder zapcore.Encoder
	if isDev {
		encoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}
	return zapcore.NewCore(encoder, w, level)
}

func stderrSyncer() zapcore.WriteSyncer {
	return zapcore.Lock(os.Stderr)
}

// checkWritable opens path for appending and closes it again.
func checkWritable(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", filepath.Clean(path), err)
	}
	return f.Close()
}
