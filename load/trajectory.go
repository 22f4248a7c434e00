package load

import "github.com/arloliu/trako/section"

// trajectoryOverhead approximates the fixed per-trajectory bookkeeping cost
// counted on top of the sample payload.
const trajectoryOverhead = 64

// LoadedTrajectory is one trajectory's assembled samples over the requested
// window. Steps and Samples are parallel slices; Steps[i] is the absolute
// time step of Samples[i] and is strictly increasing.
type LoadedTrajectory struct {
	ID     uint64
	Extent section.Vec3

	Steps   []int64
	Samples []section.Vec3
}

// SampleCount returns the number of assembled samples.
func (t *LoadedTrajectory) SampleCount() int {
	return len(t.Samples)
}

// StartTimeStep returns the first assembled time step, or 0 when the
// trajectory contributed no samples.
func (t *LoadedTrajectory) StartTimeStep() int64 {
	if len(t.Steps) == 0 {
		return 0
	}

	return t.Steps[0]
}

// EndTimeStep returns the last assembled time step, or 0 when the trajectory
// contributed no samples.
func (t *LoadedTrajectory) EndTimeStep() int64 {
	if len(t.Steps) == 0 {
		return 0
	}

	return t.Steps[len(t.Steps)-1]
}

// MemoryBytes returns the trajectory's resident footprint: the sample and
// step payload plus fixed bookkeeping overhead.
func (t *LoadedTrajectory) MemoryBytes() int64 {
	return trajectoryOverhead + int64(len(t.Samples))*(section.SampleSize+8)
}

// Result is the outcome of one successful load.
type Result struct {
	// Trajectories holds one entry per selected trajectory found in the
	// metadata, in selection order. Trajectories with no data in the window
	// are present with empty sample slices.
	Trajectories []*LoadedTrajectory

	// TotalBytes is the summed MemoryBytes of all trajectories.
	TotalBytes int64
}

// Trajectory returns the loaded trajectory with the given ID, or nil.
func (r *Result) Trajectory(id uint64) *LoadedTrajectory {
	for _, t := range r.Trajectories {
		if t.ID == id {
			return t
		}
	}

	return nil
}
