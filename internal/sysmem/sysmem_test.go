package sysmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotal(t *testing.T) {
	total := Total()
	require.Positive(t, total)
	// Anything below 64MiB would mean the probe returned garbage.
	require.GreaterOrEqual(t, total, int64(64)<<20)
}
