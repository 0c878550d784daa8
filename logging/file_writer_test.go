package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultFileWriterConfig(t *testing.T) {
	config := DefaultFileWriterConfig()

	if config.MaxSizeMB != DefaultMaxSizeMB || config.MaxBackups != DefaultMaxBackups || config.MaxAgeDays != DefaultMaxAgeDays {
		t.Errorf("DefaultFileWriterConfig() = %+v", config)
	}
	if !config.Compress {
		t.Error("Compress should default to true")
	}
}

func TestApplyFileWriterDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   FileWriterConfig
		want FileWriterConfig
	}{
		{
			name: "zero values",
			in:   FileWriterConfig{},
			want: FileWriterConfig{MaxSizeMB: DefaultMaxSizeMB, MaxBackups: DefaultMaxBackups, MaxAgeDays: DefaultMaxAgeDays},
		},
		{
			name: "negative values",
			in:   FileWriterConfig{MaxSizeMB: -1, MaxBackups: -2, MaxAgeDays: -3},
			want: FileWriterConfig{MaxSizeMB: DefaultMaxSizeMB, MaxBackups: DefaultMaxBackups, MaxAgeDays: DefaultMaxAgeDays},
		},
		{
			name: "custom values kept",
			in:   FileWriterConfig{MaxSizeMB: 5, MaxBackups: 1, MaxAgeDays: 2, Compress: true},
			want: FileWriterConfig{MaxSizeMB: 5, MaxBackups: 1, MaxAgeDays: 2, Compress: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyFileWriterDefaults(tt.in); got != tt.want {
				t.Errorf("applyFileWriterDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewFileWriter(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	writer := NewFileWriter(logPath)

	msg := []byte("run complete\n")
	n, err := writer.Write(msg)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(msg) {
		t.Errorf("Write() = %d, want %d", n, len(msg))
	}
	_ = writer.Sync()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != string(msg) {
		t.Errorf("content = %q, want %q", content, msg)
	}
}
