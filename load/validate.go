package load

import (
	"fmt"
	"path/filepath"

	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
	"github.com/arloliu/trako/resource"
	"github.com/arloliu/trako/section"
)

// BytesPerSample is the per-sample cost used by the pre-flight memory
// estimate: one position sample plus step and slice bookkeeping overhead.
const BytesPerSample = 32

// Validation is the outcome of a pre-flight check. When CanLoad is false,
// Message explains the rejection in human-readable form.
type Validation struct {
	CanLoad              bool
	Message              string
	EstimatedBytes       int64
	TrajectoryCount      int
	SamplesPerTrajectory int64
}

// plan is the resolved form of a Params: metadata read, window resolved,
// trajectories selected. Both validation and assembly start from it, so the
// two can never disagree on what a request means.
type plan struct {
	meta     *section.DatasetMeta
	metas    []section.TrajectoryMeta
	metaByID map[uint64]section.TrajectoryMeta
	selected []uint64

	// windows holds per-trajectory window overrides from an explicit
	// selection, already intersected with the request window. Trajectories
	// without an override fall back to [start, end].
	windows map[uint64]timeWindow

	start, end int64
	stride     int
}

type timeWindow struct {
	start, end int64
}

// window returns the effective time window for one trajectory. The returned
// window may be empty (start > end) when a per-trajectory window is disjoint
// from the request window; such a trajectory contributes no samples.
func (p *plan) window(id uint64) (start, end int64) {
	if w, ok := p.windows[id]; ok {
		return w.start, w.end
	}

	return p.start, p.end
}

// buildPlan resolves params against the dataset's metadata files. It reads
// only the two metadata files, never a shard, so its cost is independent of
// dataset size.
func buildPlan(params Params) (*plan, error) {
	if params.Dir == "" {
		return nil, fmt.Errorf("dataset directory not set")
	}
	if params.Stride < 1 {
		return nil, fmt.Errorf("%w: stride %d, must be >= 1", errs.ErrInvalidStride, params.Stride)
	}
	if err := section.DatasetFilesPresent(params.Dir); err != nil {
		return nil, err
	}

	meta, err := section.ReadDatasetMetaFile(filepath.Join(params.Dir, section.DatasetMetaFileName))
	if err != nil {
		return nil, err
	}

	metas, _, err := section.ReadTrajectoryMetaFile(
		filepath.Join(params.Dir, section.TrajectoryMetaFileName), meta.Engine())
	if err != nil {
		return nil, err
	}

	start, end, err := resolveWindow(params, meta)
	if err != nil {
		return nil, err
	}

	selected, err := Select(params, metas)
	if err != nil {
		return nil, err
	}

	metaByID := make(map[uint64]section.TrajectoryMeta, len(metas))
	for i := range metas {
		metaByID[metas[i].ID] = metas[i]
	}

	var windows map[uint64]timeWindow
	if params.Strategy == format.SelectExplicit {
		windows, err = resolveSelectionWindows(params.Explicit, start, end)
		if err != nil {
			return nil, err
		}
	}

	return &plan{
		meta:     meta,
		metas:    metas,
		metaByID: metaByID,
		selected: selected,
		windows:  windows,
		start:    start,
		end:      end,
		stride:   params.Stride,
	}, nil
}

// resolveSelectionWindows intersects each explicit selection's optional
// window with the resolved request window. Only selections that actually
// tighten a bound get an entry; a first occurrence wins over later
// duplicates, matching the selection dedupe.
func resolveSelectionWindows(sels []TrajectorySelection, start, end int64) (map[uint64]timeWindow, error) {
	var windows map[uint64]timeWindow
	for _, sel := range sels {
		if sel.StartTimeStep == TimeStepUnbounded && sel.EndTimeStep == TimeStepUnbounded {
			continue
		}
		if sel.StartTimeStep != TimeStepUnbounded && sel.EndTimeStep != TimeStepUnbounded &&
			sel.StartTimeStep > sel.EndTimeStep {
			return nil, fmt.Errorf("%w: trajectory %d window [%d, %d] is empty",
				errs.ErrInvalidTimeRange, sel.ID, sel.StartTimeStep, sel.EndTimeStep)
		}

		w := timeWindow{start: start, end: end}
		if sel.StartTimeStep != TimeStepUnbounded && sel.StartTimeStep > w.start {
			w.start = sel.StartTimeStep
		}
		if sel.EndTimeStep != TimeStepUnbounded && sel.EndTimeStep < w.end {
			w.end = sel.EndTimeStep
		}

		if windows == nil {
			windows = make(map[uint64]timeWindow)
		}
		if _, ok := windows[sel.ID]; !ok {
			windows[sel.ID] = w
		}
	}

	return windows, nil
}

// samplesPerTrajectory is the worst-case sample count one trajectory can
// contribute over the plan's window at its stride.
func (p *plan) samplesPerTrajectory() int64 {
	span := p.end - p.start + 1

	return (span + int64(p.stride) - 1) / int64(p.stride)
}

// estimatedBytes is the worst-case memory the plan's result can occupy.
func (p *plan) estimatedBytes() int64 {
	return int64(len(p.selected)) * p.samplesPerTrajectory() * BytesPerSample
}

// Validate checks params against the dataset's metadata and the controller's
// remaining memory budget without opening any shard file. It never returns an
// error; rejections are reported through the Validation value.
//
// The estimate is conservative: it assumes every selected trajectory spans
// the whole window with no invalid samples, so the actual load never exceeds
// it. A nil controller skips the budget check.
func Validate(params Params, ctrl *resource.Controller) Validation {
	p, err := buildPlan(params)
	if err != nil {
		return Validation{Message: err.Error()}
	}

	v := Validation{
		EstimatedBytes:       p.estimatedBytes(),
		TrajectoryCount:      len(p.selected),
		SamplesPerTrajectory: p.samplesPerTrajectory(),
	}

	if ctrl != nil {
		if remaining := ctrl.Remaining(); v.EstimatedBytes > remaining {
			v.Message = fmt.Sprintf("%s: need %d bytes, %d available",
				errs.ErrBudgetExceeded.Error(), v.EstimatedBytes, remaining)

			return v
		}
	}

	v.CanLoad = true

	return v
}
