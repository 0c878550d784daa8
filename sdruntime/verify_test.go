package sdruntime

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func sha(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestCalculateChecksum(t *testing.T) {
	path := writeFile(t, t.TempDir(), "model.safetensors", "Hello, World!")

	got, err := CalculateChecksum(path)
	if err != nil {
		t.Fatalf("CalculateChecksum() error = %v", err)
	}
	if got != sha("Hello, World!") {
		t.Errorf("CalculateChecksum() = %s, want %s", got, sha("Hello, World!"))
	}
}

func TestCalculateChecksum_Missing(t *testing.T) {
	_, err := CalculateChecksum(filepath.Join(t.TempDir(), "missing"))
	if !IsModelNotFound(err) {
		t.Errorf("error = %v, want ErrModelNotFound", err)
	}
}

func TestVerifyModelChecksum(t *testing.T) {
	path := writeFile(t, t.TempDir(), "model.safetensors", "weights")

	tests := []struct {
		name     string
		expected string
		wantErr  error
	}{
		{"nothing expected", "", nil},
		{"match", sha("weights"), nil},
		{"match upper case", strings.ToUpper(sha("weights")), nil},
		{"mismatch", sha("other"), ErrModelCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyModelChecksum(path, tt.expected)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyModelChecksum() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := VerifyModelChecksum(path, sha("other")); !IsModelCorrupted(err) {
		t.Error("IsModelCorrupted() = false for mismatch")
	}
}
