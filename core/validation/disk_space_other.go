//go:build !unix && !windows

package validation

import (
	"errors"
	"runtime"
)

func getDiskSpace(string) (int64, int64, error) {
	return 0, 0, errors.New("disk space check not supported on " + runtime.GOOS)
}
