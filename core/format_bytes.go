package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Byte size constants, binary (1024 based).
const (
	BytesPerKB int64 = 1024
	BytesPerMB int64 = 1024 * BytesPerKB
	BytesPerGB int64 = 1024 * BytesPerMB
	BytesPerTB int64 = 1024 * BytesPerGB
)

// DefaultMinFreeSpace is the free space the startup checks expect next to
// the history database and the output directory.
const DefaultMinFreeSpace = 200 * BytesPerMB

var byteUnits = []struct {
	suffix string
	size   int64
}{
	{"TB", BytesPerTB},
	{"GB", BytesPerGB},
	{"MB", BytesPerMB},
	{"KB", BytesPerKB},
}

// FormatBytes converts a byte count to a human-readable string.
// Examples:
//   - FormatBytes(512) returns "512 B"
//   - FormatBytes(1536) returns "1.50 KB"
//   - FormatBytes(2147483648) returns "2.00 GB"
//
// Negative values format as "0 B". This is a pure function with no side effects.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	for _, u := range byteUnits {
		if bytes >= u.size {
			return fmt.Sprintf("%.2f %s", float64(bytes)/float64(u.size), u.suffix)
		}
	}
	return fmt.Sprintf("%d B", bytes)
}

// ParseBytes converts "200MB", "1.5 GB", "10k" or a plain number of bytes
// into a byte count. Units are case-insensitive.
//
// This is a pure function with no side effects.
func ParseBytes(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	numEnd := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if numEnd == -1 {
		numEnd = len(s)
	}
	if numEnd == 0 {
		return 0, fmt.Errorf("invalid size %q: no number found", s)
	}

	value, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	unit := strings.TrimSpace(s[numEnd:])
	multiplier := int64(1)
	switch unit {
	case "", "B":
	case "K", "KB":
		multiplier = BytesPerKB
	case "M", "MB":
		multiplier = BytesPerMB
	case "G", "GB":
		multiplier = BytesPerGB
	case "T", "TB":
		multiplier = BytesPerTB
	default:
		return 0, fmt.Errorf("invalid size %q: unknown unit %q", s, unit)
	}

	return int64(value * float64(multiplier)), nil
}
