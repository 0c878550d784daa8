//go:build windows

package validation

import "golang.org/x/sys/windows"

// getDiskSpace reports the volume holding path, honoring per-user quotas.
func getDiskSpace(path string) (total int64, free int64, err error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}
	var callerFree, totalBytes, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &callerFree, &totalBytes, &totalFree); err != nil {
		return 0, 0, err
	}
	return int64(totalBytes), int64(callerFree), nil
}
