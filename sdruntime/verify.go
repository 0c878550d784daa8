package sdruntime

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// VerifyModelChecksum compares the SHA256 of modelPath with expected.
// An empty expected checksum means there is nothing to verify.
//
// Returns:
//   - nil if the checksum matches or none is expected
//   - ErrModelNotFound if the file doesn't exist
//   - ErrModelCorrupted on mismatch
func VerifyModelChecksum(modelPath, expected string) error {
	if expected == "" {
		return nil
	}

	actual, err := CalculateChecksum(modelPath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: expected %s, got %s", ErrModelCorrupted, expected, actual)
	}
	return nil
}

// CalculateChecksum streams a file through SHA256 and returns the
// lowercase hex digest. Model files are several GB, so nothing is read
// into memory at once.
func CalculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrModelNotFound, filePath)
		}
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// IsModelCorrupted checks if an error indicates model corruption.
func IsModelCorrupted(err error) bool {
	return errors.Is(err, ErrModelCorrupted)
}

// IsModelNotFound checks if an error indicates a missing model file.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
