package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
	"github.com/arloliu/trako/load"
	"github.com/arloliu/trako/section"
)

func testResult() *load.Result {
	result := &load.Result{
		Trajectories: []*load.LoadedTrajectory{
			{
				ID:      42,
				Extent:  section.Vec3{X: 0.5, Y: 0.5, Z: 0.5},
				Steps:   []int64{10, 11, 12, 15},
				Samples: []section.Vec3{{X: 1}, {X: 2}, {X: 3}, {X: 6, Y: -1, Z: 0.25}},
			},
			{
				ID:     7,
				Extent: section.Vec3{X: 2, Y: 1, Z: 1},
				// No samples in the window.
			},
		},
	}
	for _, traj := range result.Trajectories {
		result.TotalBytes += traj.MemoryBytes()
	}

	return result
}

func TestSaveLoadRoundTrip(t *testing.T) {
	types := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}
	for _, ct := range types {
		t.Run(ct.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "result.tdar")
			want := testResult()

			require.NoError(t, Save(path, want, ct))

			got, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, want.TotalBytes, got.TotalBytes)
			require.Len(t, got.Trajectories, len(want.Trajectories))

			for i, traj := range want.Trajectories {
				require.Equal(t, traj.ID, got.Trajectories[i].ID)
				require.Equal(t, traj.Extent, got.Trajectories[i].Extent)
				require.Equal(t, traj.Steps, got.Trajectories[i].Steps)
				require.Equal(t, traj.Samples, got.Trajectories[i].Samples)
			}
		})
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.tdar")
	require.NoError(t, Save(path, testResult(), format.CompressionZstd))

	t.Run("Wrong magic", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		copy(data, "NOPE")

		bad := filepath.Join(dir, "magic.tdar")
		require.NoError(t, os.WriteFile(bad, data, 0o644))

		_, err = Load(bad)
		require.ErrorIs(t, err, errs.ErrInvalidMagic)
	})

	t.Run("Truncated header", func(t *testing.T) {
		bad := filepath.Join(dir, "short.tdar")
		require.NoError(t, os.WriteFile(bad, []byte(Magic), 0o644))

		_, err := Load(bad)
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("Truncated payload", func(t *testing.T) {
		// CompressionNone keeps the payload readable so truncation hits the
		// record bounds checks instead of the codec.
		full := filepath.Join(dir, "full.tdar")
		require.NoError(t, Save(full, testResult(), format.CompressionNone))

		data, err := os.ReadFile(full)
		require.NoError(t, err)

		bad := filepath.Join(dir, "trunc.tdar")
		require.NoError(t, os.WriteFile(bad, data[:len(data)-8], 0o644))

		_, err = Load(bad)
		require.ErrorIs(t, err, errs.ErrDataOutOfBounds)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.tdar"))
		require.Error(t, err)
	})
}
