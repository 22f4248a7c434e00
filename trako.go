// Package trako loads trajectory data from sharded binary datasets.
//
// A dataset is a directory produced by the converter tool: one fixed-size
// metadata record (dataset-meta.bin), one per-trajectory metadata array
// (dataset-trajmeta.bin), and one shard file per time interval
// (shard-<N>.bin) holding fixed-stride position entries. Trako memory-maps
// the shards and assembles per-trajectory sample sequences over a requested
// time window, in parallel across shards and across trajectories within each
// shard.
//
// # Core Features
//
//   - Explicit binary codecs for all on-disk structures, both byte orders
//   - Selection strategies: first-N, evenly distributed, explicit ID list
//   - Requested-ID-only shard indexing, so large shards stay tractable
//   - Metadata-only pre-flight validation against a physical-memory budget
//   - Synchronous and asynchronous loading with cooperative cancellation
//   - Compressed result archives and YAML-described dataset discovery
//
// # Basic Usage
//
// Loading the first 100 trajectories of a dataset over its whole time range:
//
//	import "github.com/arloliu/trako"
//
//	params := trako.NewParams("/data/merge-03")
//	params.Count = 100
//
//	if v := trako.Validate(params); !v.CanLoad {
//	    return errors.New(v.Message)
//	}
//
//	result, err := trako.Load(ctx, params)
//	if err != nil {
//	    return err
//	}
//	for _, traj := range result.Trajectories {
//	    fmt.Printf("trajectory %d: %d samples\n", traj.ID, traj.SampleCount())
//	}
//
// Asynchronous loading with progress:
//
//	loader, _ := load.NewLoader(dir)
//	handle, err := loader.LoadAsync(ctx, params)
//	if err != nil {
//	    return err
//	}
//	result, err := handle.Result()
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the load
// package, simplifying the most common use cases. For fine-grained control
// (resource budgets, async handles, the dataset manager) use the load,
// resource, archive and manifest packages directly.
package trako

import (
	"context"

	"github.com/arloliu/trako/internal/hash"
	"github.com/arloliu/trako/load"
)

// Convenience aliases for the types every caller touches.
type (
	Params              = load.Params
	TrajectorySelection = load.TrajectorySelection
	Result              = load.Result
	LoadedTrajectory    = load.LoadedTrajectory
	Validation          = load.Validation
)

// TimeStepUnbounded marks an unset window bound in Params.
const TimeStepUnbounded = load.TimeStepUnbounded

// NewParams returns Params covering the whole dataset at dir: unbounded
// window, stride 1, all trajectories.
func NewParams(dir string) Params {
	return load.NewParams(dir)
}

// SelectIDs builds an explicit selection list with no per-trajectory bounds.
func SelectIDs(ids ...uint64) []TrajectorySelection {
	return load.SelectIDs(ids...)
}

// DatasetID returns the stable 64-bit ID the dataset manager derives from a
// dataset directory path.
func DatasetID(dir string) uint64 {
	return hash.ID(dir)
}

// Validate runs the metadata-only pre-flight check for params against the
// default process memory budget.
func Validate(params Params) Validation {
	return load.Validate(params, nil)
}

// Load loads params.Dir synchronously with default settings and blocks until
// the result is ready or ctx is cancelled.
func Load(ctx context.Context, params Params) (*Result, error) {
	loader, err := load.NewLoader(params.Dir)
	if err != nil {
		return nil, err
	}

	return loader.Load(ctx, params)
}
