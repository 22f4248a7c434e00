package load

import (
	"fmt"
	"math"

	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
	"github.com/arloliu/trako/section"
)

// TimeStepUnbounded is the sentinel for an unset window bound. A start bound
// set to it resolves to the dataset's first time step, an end bound to the
// dataset's last.
const TimeStepUnbounded = math.MinInt64

// Params describes one load request against a dataset directory.
type Params struct {
	// Dir is the dataset directory holding dataset-meta.bin,
	// dataset-trajmeta.bin and the shard files.
	Dir string

	// StartTimeStep and EndTimeStep bound the requested time window, both
	// inclusive. Either may be TimeStepUnbounded to take the dataset bound.
	StartTimeStep int64
	EndTimeStep   int64

	// Stride keeps every Stride-th time step of the window, phase-anchored
	// at the resolved window start. Must be >= 1.
	Stride int

	// Strategy selects which trajectories to load.
	Strategy format.SelectionStrategy

	// Count limits SelectFirstN and SelectDistributed. Zero or negative
	// means all trajectories.
	Count int

	// Explicit is the caller-supplied trajectory list for SelectExplicit.
	// IDs absent from the trajectory metadata are silently dropped.
	Explicit []TrajectorySelection
}

// TrajectorySelection names one explicitly requested trajectory, optionally
// carrying its own time window.
//
// A per-trajectory bound tightens the request window for that trajectory
// alone; the effective window is the intersection of the two. Either bound
// may be TimeStepUnbounded to defer to the request window, which is also the
// value SelectIDs fills in. A per-trajectory window disjoint from the
// request window yields an empty trajectory, not an error.
type TrajectorySelection struct {
	ID            uint64
	StartTimeStep int64
	EndTimeStep   int64
}

// SelectIDs builds an explicit selection list with no per-trajectory bounds.
func SelectIDs(ids ...uint64) []TrajectorySelection {
	sels := make([]TrajectorySelection, len(ids))
	for i, id := range ids {
		sels[i] = TrajectorySelection{
			ID:            id,
			StartTimeStep: TimeStepUnbounded,
			EndTimeStep:   TimeStepUnbounded,
		}
	}

	return sels
}

// NewParams returns Params covering the whole dataset: unbounded window,
// stride 1, all trajectories in metadata order.
func NewParams(dir string) Params {
	return Params{
		Dir:           dir,
		StartTimeStep: TimeStepUnbounded,
		EndTimeStep:   TimeStepUnbounded,
		Stride:        1,
		Strategy:      format.SelectFirstN,
	}
}

// resolveWindow turns window sentinels into absolute bounds, clamps them to
// the dataset's range, and rejects an inverted window.
func resolveWindow(params Params, meta *section.DatasetMeta) (start, end int64, err error) {
	start = params.StartTimeStep
	if start == TimeStepUnbounded || start < meta.FirstTimeStep {
		start = meta.FirstTimeStep
	}

	end = params.EndTimeStep
	if end == TimeStepUnbounded || end > meta.LastTimeStep {
		end = meta.LastTimeStep
	}

	if start > end {
		return 0, 0, fmt.Errorf("%w: window [%d, %d] is empty",
			errs.ErrInvalidTimeRange, start, end)
	}

	return start, end, nil
}
