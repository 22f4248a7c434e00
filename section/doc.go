// Package section defines the low-level binary structures and constants for the
// trako trajectory dataset format.
//
// This package provides the foundational types that define the physical layout
// of the three dataset files. It handles binary serialization/deserialization of
// the dataset metadata record, per-trajectory metadata records, shard headers
// and shard entry headers, ensuring consistent byte-level representation across
// platforms.
//
// # Dataset Layout
//
// A dataset directory produced by the converter tool contains:
//
//	dataset-meta.bin       one fixed-size DatasetMeta record (124 bytes)
//	dataset-trajmeta.bin   flat array of TrajectoryMeta records (44 bytes each)
//	shard-<N>.bin          one file per time interval, N is the shard file index
//
// Each shard file begins with a ShardHeader followed by a data section of
// fixed-stride entries:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ ShardHeader (36 bytes, fixed)                           │
//	├─────────────────────────────────────────────────────────┤
//	│ Entry 0: EntryHeader (16 bytes)                         │
//	│          samples ([IntervalSize][3]float32)             │
//	├─────────────────────────────────────────────────────────┤
//	│ Entry 1: ...                                            │
//	└─────────────────────────────────────────────────────────┘
//
// Every entry occupies exactly DatasetMeta.EntrySize bytes, so entry K of a
// shard starts at DataOffset + K*EntrySize. The entry holding a particular
// trajectory is located through TrajectoryMeta.EntryIndex, not by scanning;
// entries are not guaranteed to be stored in trajectory-ID order.
//
// # DatasetMeta Format (124 bytes)
//
//	Bytes   | Field             | Type       | Description
//	--------|-------------------|------------|--------------------------------
//	0-3     | Magic             | [4]byte    | "TDSH"
//	4-7     | Version           | uint32     | Format version (currently 1)
//	8       | Endianness        | uint8      | 0=little, 1=big
//	9       | Precision         | uint8      | 0=float32 (only supported value)
//	10-11   | reserved          |            | Must be zero
//	12-19   | FirstTimeStep     | int64      | First absolute time step (inclusive)
//	20-27   | LastTimeStep      | int64      | Last absolute time step (inclusive)
//	28-31   | IntervalSize      | uint32     | Time steps covered per shard
//	32-35   | EntrySize         | uint32     | Byte stride of one shard entry
//	36-47   | BBoxMin           | [3]float32 | Dataset bounding box minimum
//	48-59   | BBoxMax           | [3]float32 | Dataset bounding box maximum
//	60-67   | TrajectoryCount   | uint64     | Number of trajectories
//	68-75   | FirstTrajectoryID | uint64     | Smallest trajectory ID
//	76-83   | LastTrajectoryID  | uint64     | Largest trajectory ID
//	84-91   | CreatedAt         | int64      | Unix timestamp in microseconds
//	92-123  | ConverterVersion  | [32]byte   | NUL-padded version string
//
// The magic bytes and the two flag bytes are byte-order free; all remaining
// fields use the byte order declared by the Endianness flag.
//
// # TrajectoryMeta Format (44 bytes)
//
//	Bytes   | Field         | Type       | Description
//	--------|---------------|------------|------------------------------------
//	0-7     | ID            | uint64     | Trajectory ID, unique within dataset
//	8-15    | StartTimeStep | int64      | First time step with data (inclusive)
//	16-23   | EndTimeStep   | int64      | Last time step with data (inclusive)
//	24-35   | Extent        | [3]float32 | Half-extent of the entity
//	36-39   | DataFileIndex | uint32     | Shard file index holding its data
//	40-43   | EntryIndex    | uint32     | Entry position within that shard
//
// # ShardHeader Format (36 bytes)
//
//	Bytes   | Field         | Type    | Description
//	--------|---------------|---------|---------------------------------------
//	0-3     | Magic         | [4]byte | "TDDB"
//	4-7     | Version       | uint32  | Format version (currently 1)
//	8       | Endianness    | uint8   | 0=little, 1=big
//	9-11    | reserved      |         | Must be zero
//	12-19   | IntervalIndex | int64   | Global interval index (authoritative)
//	20-23   | IntervalSize  | uint32  | Time steps covered by this shard
//	24-27   | EntryCount    | uint32  | Number of entries in the data section
//	28-35   | DataOffset    | uint64  | Byte offset of the data section
//
// # EntryHeader Format (16 bytes)
//
//	Bytes   | Field       | Type   | Description
//	--------|-------------|--------|------------------------------------------
//	0-7     | ID          | uint64 | Trajectory ID (must match TrajectoryMeta)
//	8-11    | StartStep   | int32  | Interval-local first valid step, -1 = none
//	12-15   | SampleCount | uint32 | Number of valid samples
//
// The sample array following the header has one [3]float32 slot per time step
// in the interval. Slots outside [StartStep, StartStep+SampleCount) carry no
// meaning and may be NaN-marked by the converter.
//
// # Zero-Copy Sample Access
//
// Vec3 is laid out as three consecutive float32 values with no padding, which
// is bit-compatible with the on-disk sample slots. When the file byte order
// matches the host byte order, SamplesFromBytes reinterprets a mapped byte
// region as a []Vec3 without copying or converting. When byte orders differ,
// callers must fall back to per-field decoding via ParseVec3.
//
// # Thread Safety
//
// All types in this package are plain value types; parsing and serialization
// allocate fresh memory and are safe for concurrent use.
package section
