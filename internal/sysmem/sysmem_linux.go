//go:build linux

package sysmem

import "golang.org/x/sys/unix"

func osTotal() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}

	return int64(info.Totalram) * int64(info.Unit) //nolint: gosec
}
