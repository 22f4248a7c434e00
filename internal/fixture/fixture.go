// Package fixture builds synthetic trajectory datasets on disk for tests.
//
// It plays the role of the external converter tool: it writes the
// dataset-meta.bin, dataset-trajmeta.bin and shard-<N>.bin files in the exact
// binary layout the section package defines, with deterministic sample values
// so tests can recompute expectations independently.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/format"
	"github.com/arloliu/trako/section"
)

// Trajectory describes one synthetic trajectory.
type Trajectory struct {
	ID    uint64
	Start int64 // first absolute time step with data, inclusive
	End   int64 // last absolute time step with data, inclusive

	// Pos overrides the default position generator when non-nil.
	Pos func(step int64) section.Vec3
}

// Dataset describes a synthetic dataset to write.
type Dataset struct {
	Dir          string
	Endianness   format.Endianness
	FirstStep    int64
	IntervalSize uint32
	Intervals    int // number of shard files
	Trajectories []Trajectory

	// SkipShards lists interval indices whose shard file is not written,
	// simulating a shard missing on disk.
	SkipShards []int

	// IncludeEmptyEntries writes a sentinel entry for every trajectory in
	// every shard, even when the trajectory has no data in that interval.
	IncludeEmptyEntries bool
}

// DefaultPos is the deterministic position generator used when a trajectory
// does not override Pos.
func DefaultPos(id uint64, step int64) section.Vec3 {
	return section.Vec3{
		X: float32(step),
		Y: float32(id),
		Z: float32(step) / 2,
	}
}

// LastStep returns the last absolute time step covered by the dataset.
func (d *Dataset) LastStep() int64 {
	return d.FirstStep + int64(d.Intervals)*int64(d.IntervalSize) - 1
}

// Write creates the dataset directory and its binary files.
func Write(d Dataset) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}

	meta := section.NewDatasetMeta(d.Endianness)
	meta.FirstTimeStep = d.FirstStep
	meta.LastTimeStep = d.LastStep()
	meta.IntervalSize = d.IntervalSize
	meta.EntrySize = uint32(section.EntrySize(d.IntervalSize)) //nolint: gosec
	meta.BBoxMin = section.Vec3{X: -1e6, Y: -1e6, Z: -1e6}
	meta.BBoxMax = section.Vec3{X: 1e6, Y: 1e6, Z: 1e6}
	meta.TrajectoryCount = uint64(len(d.Trajectories))
	meta.ConverterVersion = "fixture"
	if len(d.Trajectories) > 0 {
		meta.FirstTrajectoryID = d.Trajectories[0].ID
		meta.LastTrajectoryID = d.Trajectories[0].ID
		for _, tr := range d.Trajectories {
			meta.FirstTrajectoryID = min(meta.FirstTrajectoryID, tr.ID)
			meta.LastTrajectoryID = max(meta.LastTrajectoryID, tr.ID)
		}
	}

	if err := os.WriteFile(filepath.Join(d.Dir, section.DatasetMetaFileName), meta.Bytes(), 0o644); err != nil {
		return err
	}

	engine := meta.Engine()

	if err := writeTrajectoryMeta(&d, engine); err != nil {
		return err
	}

	for interval := 0; interval < d.Intervals; interval++ {
		if slices.Contains(d.SkipShards, interval) {
			continue
		}
		if err := writeShard(&d, meta, interval); err != nil {
			return err
		}
	}

	return nil
}

func writeTrajectoryMeta(d *Dataset, engine endian.EndianEngine) error {
	data := make([]byte, len(d.Trajectories)*section.TrajectoryMetaSize)
	offset := 0
	for _, tr := range d.Trajectories {
		meta := section.TrajectoryMeta{
			ID:            tr.ID,
			StartTimeStep: tr.Start,
			EndTimeStep:   tr.End,
			Extent:        section.Vec3{X: 0.5, Y: 0.5, Z: 0.5},
			DataFileIndex: uint32(shardOfStep(d, tr.Start)), //nolint: gosec
			EntryIndex:    entryIndexIn(d, shardOfStep(d, tr.Start), tr.ID),
		}
		offset = meta.WriteToSlice(data, offset, engine)
	}

	return os.WriteFile(filepath.Join(d.Dir, section.TrajectoryMetaFileName), data, 0o644)
}

func shardOfStep(d *Dataset, step int64) int {
	idx := int((step - d.FirstStep) / int64(d.IntervalSize))
	if idx < 0 {
		idx = 0
	}
	if idx >= d.Intervals {
		idx = d.Intervals - 1
	}

	return idx
}

// entryIndexIn returns the data-section position the given trajectory's entry
// will have in the given shard.
func entryIndexIn(d *Dataset, interval int, id uint64) uint32 {
	pos := uint32(0)
	for _, tr := range d.Trajectories {
		include := d.IncludeEmptyEntries || overlapsInterval(d, tr, interval)
		if !include {
			continue
		}
		if tr.ID == id {
			return pos
		}
		pos++
	}

	return 0
}

func overlapsInterval(d *Dataset, tr Trajectory, interval int) bool {
	shardStart := d.FirstStep + int64(interval)*int64(d.IntervalSize)
	shardEnd := shardStart + int64(d.IntervalSize) - 1

	return tr.Start <= shardEnd && tr.End >= shardStart
}

func writeShard(d *Dataset, meta *section.DatasetMeta, interval int) error {
	engine := meta.Engine()
	entrySize := section.EntrySize(d.IntervalSize)
	shardStart := d.FirstStep + int64(interval)*int64(d.IntervalSize)
	shardEnd := shardStart + int64(d.IntervalSize) - 1

	var included []Trajectory
	for _, tr := range d.Trajectories {
		if d.IncludeEmptyEntries || overlapsInterval(d, tr, interval) {
			included = append(included, tr)
		}
	}

	header := section.NewShardHeader(d.Endianness, int64(interval), d.IntervalSize)
	header.EntryCount = uint32(len(included)) //nolint: gosec
	header.DataOffset = section.ShardHeaderSize

	data := make([]byte, section.ShardHeaderSize+len(included)*entrySize)
	copy(data, header.Bytes())

	for i, tr := range included {
		entryOffset := section.ShardHeaderSize + i*entrySize

		entry := section.EntryHeader{ID: tr.ID, StartStep: section.NoValidData}
		if overlapsInterval(d, tr, interval) {
			first := max(tr.Start, shardStart)
			last := min(tr.End, shardEnd)
			entry.StartStep = int32(first - shardStart)  //nolint: gosec
			entry.SampleCount = uint32(last - first + 1) //nolint: gosec
		}
		entry.WriteToSlice(data, entryOffset, engine)

		if entry.IsEmpty() {
			continue
		}

		pos := tr.Pos
		if pos == nil {
			id := tr.ID
			pos = func(step int64) section.Vec3 { return DefaultPos(id, step) }
		}

		samplesOffset := entryOffset + section.EntryHeaderSize
		for local := entry.StartStep; local < entry.StartStep+int32(entry.SampleCount); local++ { //nolint: gosec
			sample := pos(shardStart + int64(local))
			buf := section.AppendVec3(nil, sample, engine)
			copy(data[samplesOffset+int(local)*section.SampleSize:], buf)
		}
	}

	name := fmt.Sprintf("%s%d%s", section.ShardFilePrefix, interval, section.ShardFileSuffix)

	return os.WriteFile(filepath.Join(d.Dir, name), data, 0o644)
}
