package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"sdprompt/core"
)

// DiskSpaceInfo contains information about disk space.
type DiskSpaceInfo struct {
	Path           string // directory that was measured
	Total          int64
	Free           int64 // available to the current user
	Used           int64
	FreeFormatted  string
	TotalFormatted string
	UsedPercent    float64
}

// DiskSpaceError indicates there is less free space than required.
type DiskSpaceError struct {
	Path      string
	Required  int64
	Available int64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space at %s: need %s, have %s free",
		e.Path, core.FormatBytes(e.Required), core.FormatBytes(e.Available))
}

// GetDiskSpace returns disk space for the filesystem holding path. A path
// that does not exist yet is measured at its closest existing ancestor, so
// the history database can be checked before it is created.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if parent := filepath.Dir(path); parent != path {
				return GetDiskSpace(parent)
			}
		}
		return nil, fmt.Errorf("cannot access path %s: %w", path, err)
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}

	total, free, err := getDiskSpace(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk space for %s: %w", path, err)
	}

	used := total - free
	var usedPercent float64
	if total > 0 {
		usedPercent = float64(used) / float64(total) * 100
	}

	return &DiskSpaceInfo{
		Path:           path,
		Total:          total,
		Free:           free,
		Used:           used,
		FreeFormatted:  core.FormatBytes(free),
		TotalFormatted: core.FormatBytes(total),
		UsedPercent:    usedPercent,
	}, nil
}

// CheckDiskSpace returns a *DiskSpaceError when path has less than
// requiredBytes free.
func CheckDiskSpace(path string, requiredBytes int64) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		return err
	}
	if info.Free < requiredBytes {
		return &DiskSpaceError{
			Path:      info.Path,
			Required:  requiredBytes,
			Available: info.Free,
		}
	}
	return nil
}
