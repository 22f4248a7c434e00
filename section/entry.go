package section

import (
	"fmt"
	"unsafe"

	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/errs"
)

// EntryHeader is the fixed-size header of one shard entry: the per-trajectory
// record stored contiguously in a shard's data section at a fixed stride.
type EntryHeader struct {
	// ID is the trajectory ID. The engine cross-checks it against the
	// TrajectoryMeta lookup and drops the entry on mismatch.
	//
	// Offset: 0, Size: 8 bytes
	ID uint64

	// StartStep is the first valid time step within the interval, in
	// interval-local coordinates. NoValidData (-1) marks an entry with no
	// valid samples.
	//
	// Offset: 8, Size: 4 bytes
	StartStep int32

	// SampleCount is the number of valid samples starting at StartStep.
	//
	// Offset: 12, Size: 4 bytes
	SampleCount uint32
}

// IsEmpty reports whether the entry holds no valid samples.
func (e *EntryHeader) IsEmpty() bool {
	return e.StartStep == NoValidData || e.SampleCount == 0
}

// ValidRange returns the entry's valid sub-range [start, end) in
// interval-local coordinates, clamped against [0, intervalSize).
func (e *EntryHeader) ValidRange(intervalSize uint32) (start, end int32) {
	if e.IsEmpty() {
		return 0, 0
	}

	start = e.StartStep
	end = e.StartStep + int32(e.SampleCount) //nolint: gosec
	if start < 0 {
		start = 0
	}
	if end > int32(intervalSize) { //nolint: gosec
		end = int32(intervalSize) //nolint: gosec
	}
	if end < start {
		end = start
	}

	return start, end
}

// ParseEntryHeader parses an entry header from a byte slice.
//
// Parameters:
//   - data: Byte slice starting at the entry (must be at least 16 bytes)
//   - engine: Endian engine declared by the shard header
//
// Returns:
//   - EntryHeader: Parsed header
//   - error: ErrInvalidHeaderSize if data is too short
func ParseEntryHeader(data []byte, engine endian.EndianEngine) (EntryHeader, error) {
	if len(data) < EntryHeaderSize {
		return EntryHeader{}, fmt.Errorf("%w: got %d bytes, want %d",
			errs.ErrInvalidHeaderSize, len(data), EntryHeaderSize)
	}

	start := engine.Uint32(data[8:12])

	return EntryHeader{
		ID:          engine.Uint64(data[0:8]),
		StartStep:   *(*int32)(unsafe.Pointer(&start)),
		SampleCount: engine.Uint32(data[12:16]),
	}, nil
}

// WriteToSlice writes the entry header to a pre-allocated slice and returns
// the next write position.
func (e *EntryHeader) WriteToSlice(data []byte, offset int, engine endian.EndianEngine) int {
	engine.PutUint64(data[offset:offset+8], e.ID)
	engine.PutUint32(data[offset+8:offset+12], *(*uint32)(unsafe.Pointer(&e.StartStep)))
	engine.PutUint32(data[offset+12:offset+16], e.SampleCount)

	return offset + EntryHeaderSize
}

// EntryID reads just the leading 8-byte trajectory ID of an entry.
//
// The per-shard index scan touches only this field of each fixed-stride
// record, which is the key optimization that keeps large shards tractable.
func EntryID(data []byte, engine endian.EndianEngine) uint64 {
	return engine.Uint64(data[0:8])
}
