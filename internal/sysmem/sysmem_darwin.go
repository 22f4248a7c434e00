//go:build darwin

package sysmem

import "golang.org/x/sys/unix"

func osTotal() int64 {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0
	}

	return int64(total) //nolint: gosec
}
