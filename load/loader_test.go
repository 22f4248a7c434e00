package load

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
	"github.com/arloliu/trako/internal/fixture"
	"github.com/arloliu/trako/resource"
	"github.com/arloliu/trako/section"
	"github.com/arloliu/trako/shard"
)

func writeDataset(t *testing.T, d fixture.Dataset) string {
	t.Helper()
	if d.Dir == "" {
		d.Dir = t.TempDir()
	}
	require.NoError(t, fixture.Write(d))

	return d.Dir
}

func newTestLoader(t *testing.T, dir string, opts ...Option) *Loader {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	l, err := NewLoader(dir, opts...)
	require.NoError(t, err)

	return l
}

func requireTimeOrdered(t *testing.T, traj *LoadedTrajectory) {
	t.Helper()
	require.Len(t, traj.Steps, len(traj.Samples))
	for i := 1; i < len(traj.Steps); i++ {
		require.Greater(t, traj.Steps[i], traj.Steps[i-1],
			"trajectory %d steps not strictly increasing at %d", traj.ID, i)
	}
}

func TestLoad_SingleShardFullWindow(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    1,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 99},
			{ID: 2, Start: 0, End: 99},
			{ID: 3, Start: 0, End: 99},
		},
	})

	l := newTestLoader(t, dir)
	result, err := l.Load(context.Background(), NewParams(dir))
	require.NoError(t, err)
	require.Len(t, result.Trajectories, 3)

	for _, traj := range result.Trajectories {
		require.Len(t, traj.Samples, 100)
		require.Equal(t, int64(0), traj.StartTimeStep())
		require.Equal(t, int64(99), traj.EndTimeStep())
		requireTimeOrdered(t, traj)

		for i, step := range traj.Steps {
			require.Equal(t, fixture.DefaultPos(traj.ID, step), traj.Samples[i])
		}
	}
	require.Positive(t, result.TotalBytes)
}

func TestLoad_WindowSpansTwoShards(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    2,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 199},
			{ID: 2, Start: 0, End: 199},
		},
	})

	params := NewParams(dir)
	params.StartTimeStep = 50
	params.EndTimeStep = 149

	l := newTestLoader(t, dir)
	result, err := l.Load(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Trajectories, 2)

	for _, traj := range result.Trajectories {
		require.Len(t, traj.Samples, 100)
		requireTimeOrdered(t, traj)

		// Samples from shard 0 ([50,99]) followed by shard 1 ([100,149]),
		// concatenated with no gap.
		for i, step := range traj.Steps {
			require.Equal(t, int64(50+i), step)
		}
	}
}

func TestLoad_PartialLifetime(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    2,
		Trajectories: []fixture.Trajectory{
			{ID: 7, Start: 80, End: 130},
		},
	})

	l := newTestLoader(t, dir)
	result, err := l.Load(context.Background(), NewParams(dir))
	require.NoError(t, err)
	require.Len(t, result.Trajectories, 1)

	traj := result.Trajectories[0]
	require.Len(t, traj.Samples, 51)
	require.Equal(t, int64(80), traj.StartTimeStep())
	require.Equal(t, int64(130), traj.EndTimeStep())
	requireTimeOrdered(t, traj)
}

func TestLoad_MissingShardSkipped(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    3,
		SkipShards:   []int{1},
		Trajectories: []fixture.Trajectory{
			{ID: 5, Start: 0, End: 299},
		},
	})

	l := newTestLoader(t, dir)
	result, err := l.Load(context.Background(), NewParams(dir))
	require.NoError(t, err)
	require.Len(t, result.Trajectories, 1)

	traj := result.Trajectories[0]
	require.Len(t, traj.Samples, 200)
	requireTimeOrdered(t, traj)

	// The contribution of the missing shard ([100,199]) is simply absent.
	require.NotContains(t, traj.Steps, int64(150))
	require.Contains(t, traj.Steps, int64(99))
	require.Contains(t, traj.Steps, int64(200))
}

func TestLoad_StrideMatchesDownsampledStrideOne(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 50,
		Intervals:    3,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 10, End: 120},
		},
	})

	params := NewParams(dir)
	params.StartTimeStep = 5
	params.EndTimeStep = 110

	l := newTestLoader(t, dir)
	full, err := l.Load(context.Background(), params)
	require.NoError(t, err)

	params.Stride = 3
	strided, err := l.Load(context.Background(), params)
	require.NoError(t, err)

	want := full.Trajectories[0]
	got := strided.Trajectories[0]
	requireTimeOrdered(t, got)

	var wantSteps []int64
	for _, step := range want.Steps {
		if (step-5)%3 == 0 {
			wantSteps = append(wantSteps, step)
		}
	}
	require.Equal(t, wantSteps, got.Steps)

	for i, step := range got.Steps {
		require.Equal(t, fixture.DefaultPos(1, step), got.Samples[i])
	}
}

func TestLoad_BigEndianDataset(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		Endianness:   format.BigEndian,
		IntervalSize: 40,
		Intervals:    1,
		Trajectories: []fixture.Trajectory{
			{ID: 9, Start: 0, End: 39},
		},
	})

	l := newTestLoader(t, dir)
	result, err := l.Load(context.Background(), NewParams(dir))
	require.NoError(t, err)

	traj := result.Trajectories[0]
	require.Len(t, traj.Samples, 40)
	require.Equal(t, fixture.DefaultPos(9, 17), traj.Samples[17])
}

func TestLoad_ExplicitSelection(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    1,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 99},
			{ID: 2, Start: 0, End: 99},
		},
	})

	params := NewParams(dir)
	params.Strategy = format.SelectExplicit
	params.Explicit = SelectIDs(2, 404)

	l := newTestLoader(t, dir)
	result, err := l.Load(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Trajectories, 1)
	require.Equal(t, uint64(2), result.Trajectories[0].ID)
}

func TestLoad_ExplicitPerTrajectoryWindow(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    2,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 199},
			{ID: 2, Start: 0, End: 199},
		},
	})

	t.Run("Window tightens one trajectory only", func(t *testing.T) {
		params := NewParams(dir)
		params.Strategy = format.SelectExplicit
		params.Explicit = []TrajectorySelection{
			{ID: 1, StartTimeStep: TimeStepUnbounded, EndTimeStep: TimeStepUnbounded},
			{ID: 2, StartTimeStep: 50, EndTimeStep: 99},
		}

		l := newTestLoader(t, dir)
		result, err := l.Load(context.Background(), params)
		require.NoError(t, err)
		require.Len(t, result.Trajectories, 2)

		require.Len(t, result.Trajectory(1).Samples, 200)

		two := result.Trajectory(2)
		require.Len(t, two.Samples, 50)
		require.Equal(t, int64(50), two.StartTimeStep())
		require.Equal(t, int64(99), two.EndTimeStep())
		requireTimeOrdered(t, two)
	})

	t.Run("Intersects with the request window", func(t *testing.T) {
		params := NewParams(dir)
		params.StartTimeStep = 20
		params.EndTimeStep = 150
		params.Strategy = format.SelectExplicit
		params.Explicit = []TrajectorySelection{
			{ID: 2, StartTimeStep: TimeStepUnbounded, EndTimeStep: 99},
		}

		l := newTestLoader(t, dir)
		result, err := l.Load(context.Background(), params)
		require.NoError(t, err)

		two := result.Trajectory(2)
		require.Len(t, two.Samples, 80)
		require.Equal(t, int64(20), two.StartTimeStep())
		require.Equal(t, int64(99), two.EndTimeStep())
	})

	t.Run("Disjoint window yields an empty trajectory", func(t *testing.T) {
		params := NewParams(dir)
		params.EndTimeStep = 99
		params.Strategy = format.SelectExplicit
		params.Explicit = []TrajectorySelection{
			{ID: 1, StartTimeStep: 150, EndTimeStep: TimeStepUnbounded},
		}

		l := newTestLoader(t, dir)
		result, err := l.Load(context.Background(), params)
		require.NoError(t, err)
		require.Len(t, result.Trajectories, 1)
		require.Zero(t, result.Trajectory(1).SampleCount())
	})

	t.Run("Inverted window is rejected", func(t *testing.T) {
		params := NewParams(dir)
		params.Strategy = format.SelectExplicit
		params.Explicit = []TrajectorySelection{
			{ID: 1, StartTimeStep: 90, EndTimeStep: 10},
		}

		l := newTestLoader(t, dir)
		_, err := l.Load(context.Background(), params)
		require.ErrorIs(t, err, errs.ErrInvalidTimeRange)
	})
}

func TestLoad_StrideDropsInvalidSamples(t *testing.T) {
	nan := float32(math.NaN())
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 50,
		Intervals:    1,
		Trajectories: []fixture.Trajectory{
			{ID: 7, Start: 0, End: 49, Pos: func(step int64) section.Vec3 {
				if step%10 == 4 {
					return section.Vec3{X: nan, Y: nan, Z: nan}
				}

				return fixture.DefaultPos(7, step)
			}},
		},
	})

	params := NewParams(dir)
	params.Stride = 2

	l := newTestLoader(t, dir)
	result, err := l.Load(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Trajectories, 1)

	// Stride 2 keeps the 25 even steps; the 5 of them at 4 mod 10 hold no
	// data and must be filtered, not returned as NaN samples.
	traj := result.Trajectories[0]
	require.Len(t, traj.Samples, 20)
	requireTimeOrdered(t, traj)
	for i, step := range traj.Steps {
		require.Zero(t, step%2)
		require.NotEqual(t, int64(4), step%10)
		require.Equal(t, fixture.DefaultPos(7, step), traj.Samples[i])
	}
}

func TestLoad_CorruptEntryIDSkipsShardContribution(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    2,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 199},
			{ID: 2, Start: 0, End: 199},
		},
	})

	// Overwrite trajectory 1's stored entry ID in the second shard. Its
	// samples there become unreachable; the load must degrade to partial
	// data for that trajectory, not fail.
	path := filepath.Join(dir, "shard-1.bin")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint64(data[section.ShardHeaderSize:], 0xDEAD)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	l := newTestLoader(t, dir)
	result, err := l.Load(context.Background(), NewParams(dir))
	require.NoError(t, err)
	require.Len(t, result.Trajectories, 2)

	one := result.Trajectory(1)
	require.Len(t, one.Samples, 100)
	require.Equal(t, int64(99), one.EndTimeStep())
	requireTimeOrdered(t, one)

	require.Len(t, result.Trajectory(2).Samples, 200)
}

func TestExtractEntry_MismatchedEntryDropped(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    1,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 99},
			{ID: 2, Start: 0, End: 99},
		},
	})

	l := newTestLoader(t, dir)
	p, err := buildPlan(NewParams(dir))
	require.NoError(t, err)

	r, err := shard.Open(filepath.Join(dir, "shard-0.bin"), int(p.meta.EntrySize))
	require.NoError(t, err)
	defer r.Close()

	index := r.BuildIndex(roaring64.BitmapOf(1, 2))

	// Reading trajectory 1 through trajectory 2's position simulates a
	// stale index entry; the contribution is dropped without error.
	b, err := l.extractEntry(r, r.Path(), index[2], 1, p, 0, p.start, p.end)
	require.NoError(t, err)
	require.Empty(t, b.samples)

	b, err = l.extractEntry(r, r.Path(), index[1], 1, p, 0, p.start, p.end)
	require.NoError(t, err)
	require.Len(t, b.samples, 100)
}

func TestLoad_BudgetRejection(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    1,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 99},
		},
	})

	ctrl := resource.NewController(resource.Config{MemoryLimitBytes: 64})
	l := newTestLoader(t, dir, WithResourceController(ctrl))

	_, err := l.Load(context.Background(), NewParams(dir))
	require.ErrorIs(t, err, errs.ErrBudgetExceeded)
}

func TestValidate(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    2,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 199},
			{ID: 2, Start: 0, End: 199},
		},
	})

	t.Run("Accepts a loadable request", func(t *testing.T) {
		v := Validate(NewParams(dir), resource.NewController(resource.Config{}))
		require.True(t, v.CanLoad)
		require.Empty(t, v.Message)
		require.Equal(t, 2, v.TrajectoryCount)
		require.Equal(t, int64(200), v.SamplesPerTrajectory)
		require.Equal(t, int64(2*200*BytesPerSample), v.EstimatedBytes)
	})

	t.Run("Estimate is conservative", func(t *testing.T) {
		v := Validate(NewParams(dir), nil)
		require.True(t, v.CanLoad)

		l := newTestLoader(t, dir)
		result, err := l.Load(context.Background(), NewParams(dir))
		require.NoError(t, err)
		require.LessOrEqual(t, result.TotalBytes, v.EstimatedBytes)
	})

	t.Run("Rejects when estimate exceeds remaining", func(t *testing.T) {
		ctrl := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
		v := Validate(NewParams(dir), ctrl)
		require.False(t, v.CanLoad)
		require.Contains(t, v.Message, "need")
		require.Contains(t, v.Message, "available")
	})

	t.Run("Planned usage reduces capacity", func(t *testing.T) {
		v := Validate(NewParams(dir), nil)
		ctrl := resource.NewController(resource.Config{MemoryLimitBytes: v.EstimatedBytes + 1})
		require.True(t, Validate(NewParams(dir), ctrl).CanLoad)

		ctrl.AddPlanned(2)
		require.False(t, Validate(NewParams(dir), ctrl).CanLoad)
	})

	t.Run("Rejects bad parameters", func(t *testing.T) {
		bad := []Params{
			{},
			NewParams(t.TempDir()),
			func() Params { p := NewParams(dir); p.Stride = 0; return p }(),
			func() Params { p := NewParams(dir); p.StartTimeStep = 50; p.EndTimeStep = 10; return p }(),
			func() Params {
				p := NewParams(dir)
				p.Strategy = format.SelectExplicit
				p.Explicit = SelectIDs(404)
				return p
			}(),
		}
		for _, params := range bad {
			v := Validate(params, nil)
			require.False(t, v.CanLoad)
			require.NotEmpty(t, v.Message)
		}
	})
}

func TestLoadAsync(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    2,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 199},
		},
	})

	t.Run("Delivers the result exactly once", func(t *testing.T) {
		l := newTestLoader(t, dir)
		h, err := l.LoadAsync(context.Background(), NewParams(dir))
		require.NoError(t, err)

		result, err := h.Result()
		require.NoError(t, err)
		require.Len(t, result.Trajectories, 1)
		require.Equal(t, 1.0, h.Progress())

		// A second read observes the same completed outcome.
		again, err := h.Result()
		require.NoError(t, err)
		require.Same(t, result, again)
	})

	t.Run("Cancellation reports failure without a partial result", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		l := newTestLoader(t, dir)
		h, err := l.LoadAsync(ctx, NewParams(dir))
		require.NoError(t, err)

		result, err := h.Result()
		require.ErrorIs(t, err, errs.ErrLoadCancelled)
		require.Nil(t, result)
	})

	t.Run("Second in-flight load fails fast", func(t *testing.T) {
		ctrl := resource.NewController(resource.Config{MaxBackgroundWorkers: 1})
		l := newTestLoader(t, dir, WithResourceController(ctrl))

		// Hold the only background slot so the first load stays in flight.
		require.NoError(t, ctrl.AcquireBackground(context.Background()))

		first, err := l.LoadAsync(context.Background(), NewParams(dir))
		require.NoError(t, err)

		_, err = l.LoadAsync(context.Background(), NewParams(dir))
		require.ErrorIs(t, err, errs.ErrLoadInFlight)

		l.CancelAsyncLoad()
		_, err = first.Result()
		require.ErrorIs(t, err, errs.ErrLoadCancelled)
		ctrl.ReleaseBackground()

		// The loader is idle again once the handle completes.
		h, err := l.LoadAsync(context.Background(), NewParams(dir))
		require.NoError(t, err)
		_, err = h.Result()
		require.NoError(t, err)
	})
}

func TestManager(t *testing.T) {
	dir := writeDataset(t, fixture.Dataset{
		IntervalSize: 100,
		Intervals:    1,
		Trajectories: []fixture.Trajectory{
			{ID: 1, Start: 0, End: 99},
			{ID: 2, Start: 0, End: 99},
		},
	})

	newTestManager := func(t *testing.T) *Manager {
		t.Helper()
		m, err := NewManager(WithManagerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		require.NoError(t, err)

		return m
	}

	t.Run("Load registers and charges memory", func(t *testing.T) {
		m := newTestManager(t)
		ds, err := m.Load(context.Background(), NewParams(dir))
		require.NoError(t, err)
		require.Len(t, ds.Trajectories, 2)
		require.Equal(t, ds.MemoryBytes, m.MemoryBytes())
		require.Equal(t, ds.MemoryBytes, m.Resources().MemoryUsage())
		require.Same(t, ds, m.Dataset(dir))
	})

	t.Run("Reload replaces without leaking the charge", func(t *testing.T) {
		m := newTestManager(t)
		first, err := m.Load(context.Background(), NewParams(dir))
		require.NoError(t, err)

		second, err := m.Load(context.Background(), NewParams(dir))
		require.NoError(t, err)
		require.NotSame(t, first, second)
		require.Equal(t, second.MemoryBytes, m.Resources().MemoryUsage())
		require.Len(t, m.Datasets(), 1)
	})

	t.Run("Unload releases the charge", func(t *testing.T) {
		m := newTestManager(t)
		_, err := m.Load(context.Background(), NewParams(dir))
		require.NoError(t, err)

		require.True(t, m.Unload(dir))
		require.False(t, m.Unload(dir))
		require.Zero(t, m.MemoryBytes())
		require.Zero(t, m.Resources().MemoryUsage())
		require.Nil(t, m.Dataset(dir))
	})

	t.Run("UnloadAll clears everything", func(t *testing.T) {
		other := writeDataset(t, fixture.Dataset{
			IntervalSize: 50,
			Intervals:    1,
			Trajectories: []fixture.Trajectory{{ID: 3, Start: 0, End: 49}},
		})

		m := newTestManager(t)
		_, err := m.Load(context.Background(), NewParams(dir))
		require.NoError(t, err)
		_, err = m.Load(context.Background(), NewParams(other))
		require.NoError(t, err)
		require.Len(t, m.Datasets(), 2)

		m.UnloadAll()
		require.Empty(t, m.Datasets())
		require.Zero(t, m.Resources().MemoryUsage())
	})
}
