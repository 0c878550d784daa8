//go:build unix

package validation

import "golang.org/x/sys/unix"

// getDiskSpace reports the filesystem holding path. Free counts blocks
// available to unprivileged users, not the root reserve.
func getDiskSpace(path string) (total int64, free int64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bsize := int64(st.Bsize)
	return int64(st.Blocks) * bsize, int64(st.Bavail) * bsize, nil
}
