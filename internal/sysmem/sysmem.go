// Package sysmem probes the host's total physical memory.
//
// The memory budget policy caps loaded trajectory data at a fraction of
// physical memory; this package supplies the base figure. On platforms without
// a wired probe it falls back to a conservative fixed value so that budgeting
// still functions.
package sysmem

// fallbackTotal is used when the platform probe is unavailable or fails.
const fallbackTotal = int64(8) << 30 // 8GiB

// Total returns the total physical memory of the host in bytes.
func Total() int64 {
	if total := osTotal(); total > 0 {
		return total
	}

	return fallbackTotal
}
