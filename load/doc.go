// Package load assembles trajectories from a sharded dataset directory.
//
// The package is organized in layers:
//
//   - Params + Select: choose which trajectory IDs to load and over which
//     time window, purely from dataset and trajectory metadata.
//   - Validate: metadata-only pre-flight check that estimates the memory the
//     load would need and rejects it against the process budget before any
//     shard file is touched.
//   - Loader: the assembly engine plus sync and async orchestration. Shards
//     are processed concurrently, trajectories concurrently within each
//     shard, and per-shard results are merged in ascending interval order so
//     each trajectory's samples come out time-ordered without a final sort.
//   - Manager: a registry of loaded datasets keyed by directory, charging
//     their actual memory footprint against a resource.Controller.
//
// A Loader is safe for concurrent use, but only one async load per Loader
// may be in flight at a time; a second LoadAsync fails fast with
// errs.ErrLoadInFlight rather than queueing.
package load
