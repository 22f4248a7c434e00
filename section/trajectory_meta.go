package section

import (
	"fmt"
	"unsafe"

	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/errs"
)

// TrajectoryMeta describes one trajectory. Records are stored as a flat array
// in dataset-trajmeta.bin at a fixed 44-byte stride and are immutable after
// parsing.
type TrajectoryMeta struct {
	// ID is the 64-bit trajectory identifier, unique within the dataset.
	//
	// Offset: 0, Size: 8 bytes
	ID uint64

	// StartTimeStep is the first absolute time step with data, inclusive.
	//
	// Offset: 8, Size: 8 bytes
	StartTimeStep int64

	// EndTimeStep is the last absolute time step with data, inclusive.
	//
	// Offset: 16, Size: 8 bytes
	EndTimeStep int64

	// Extent is the half-extent of the entity along each axis.
	//
	// Offset: 24, Size: 12 bytes
	Extent Vec3

	// DataFileIndex is the index of the shard file holding the trajectory's
	// data, in the shard-<index>.bin key space.
	//
	// NOTE: a trajectory whose lifetime spans multiple intervals has entries
	// in multiple shards but only one DataFileIndex recorded here. The
	// assembly engine therefore searches all relevant shards rather than
	// trusting this field alone.
	//
	// Offset: 36, Size: 4 bytes
	DataFileIndex uint32

	// EntryIndex locates the trajectory's entry within its shard's data
	// section: the entry starts at DataOffset + EntryIndex*EntrySize.
	//
	// Offset: 40, Size: 4 bytes
	EntryIndex uint32
}

// Overlaps reports whether the trajectory's lifetime intersects the inclusive
// time range [start, end].
func (m *TrajectoryMeta) Overlaps(start, end int64) bool {
	return m.StartTimeStep <= end && m.EndTimeStep >= start
}

// ParseTrajectoryMeta parses one record from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the record (must be at least 44 bytes)
//   - engine: Endian engine declared by the dataset metadata
//
// Returns:
//   - TrajectoryMeta: Parsed record
//   - error: ErrInvalidHeaderSize if data is too short
func ParseTrajectoryMeta(data []byte, engine endian.EndianEngine) (TrajectoryMeta, error) {
	if len(data) < TrajectoryMetaSize {
		return TrajectoryMeta{}, fmt.Errorf("%w: got %d bytes, want %d",
			errs.ErrInvalidHeaderSize, len(data), TrajectoryMetaSize)
	}

	start := engine.Uint64(data[8:16])
	end := engine.Uint64(data[16:24])

	return TrajectoryMeta{
		ID:            engine.Uint64(data[0:8]),
		StartTimeStep: *(*int64)(unsafe.Pointer(&start)),
		EndTimeStep:   *(*int64)(unsafe.Pointer(&end)),
		Extent:        ParseVec3(data[24:36], engine),
		DataFileIndex: engine.Uint32(data[36:40]),
		EntryIndex:    engine.Uint32(data[40:44]),
	}, nil
}

// WriteToSlice writes the record to a pre-allocated slice and returns the next
// write position.
//
// Parameters:
//   - data: Pre-allocated byte slice (must have space for 44 bytes at offset)
//   - offset: Starting position in data slice
//   - engine: Endian engine for byte order
//
// Returns:
//   - int: Next write position (offset + 44)
func (m *TrajectoryMeta) WriteToSlice(data []byte, offset int, engine endian.EndianEngine) int {
	engine.PutUint64(data[offset:offset+8], m.ID)
	engine.PutUint64(data[offset+8:offset+16], *(*uint64)(unsafe.Pointer(&m.StartTimeStep)))
	engine.PutUint64(data[offset+16:offset+24], *(*uint64)(unsafe.Pointer(&m.EndTimeStep)))
	copy(data[offset+24:offset+36], AppendVec3(nil, m.Extent, engine))
	engine.PutUint32(data[offset+36:offset+40], m.DataFileIndex)
	engine.PutUint32(data[offset+40:offset+44], m.EntryIndex)

	return offset + TrajectoryMetaSize
}

// ParseTrajectoryMetaArray parses the flat record array stored in
// dataset-trajmeta.bin.
//
// A byte length that is not an exact multiple of the record size is tolerated:
// floor(len/recordSize) records are parsed and the number of trailing garbage
// bytes is reported so the caller can log a warning.
//
// Parameters:
//   - data: Full file contents
//   - engine: Endian engine declared by the dataset metadata
//
// Returns:
//   - []TrajectoryMeta: Parsed records in file order
//   - int: Number of trailing bytes that did not form a complete record
//   - error: Parse error from an individual record
func ParseTrajectoryMetaArray(data []byte, engine endian.EndianEngine) ([]TrajectoryMeta, int, error) {
	count := len(data) / TrajectoryMetaSize
	trailing := len(data) - count*TrajectoryMetaSize

	metas := make([]TrajectoryMeta, 0, count)
	for i := 0; i < count; i++ {
		meta, err := ParseTrajectoryMeta(data[i*TrajectoryMetaSize:], engine)
		if err != nil {
			return nil, trailing, fmt.Errorf("trajectory record %d: %w", i, err)
		}
		metas = append(metas, meta)
	}

	return metas, trailing, nil
}
