package shard

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/internal/mmap"
	"github.com/arloliu/trako/section"
)

// Reader provides zero-copy access to one memory-mapped shard file.
//
// A Reader is not safe for concurrent Close, but its read methods are safe to
// call from multiple goroutines once it is open. Close releases the mapping;
// sample slices obtained through Entry alias the mapping and must not be
// retained past Close.
type Reader struct {
	path      string
	m         *mmap.Mapping
	header    section.ShardHeader
	engine    endian.EndianEngine
	entrySize int
}

// Open memory-maps the shard file at path and validates its header.
//
// entrySize is the fixed entry stride declared by the dataset metadata; it is
// cross-checked against the shard's own interval size and the file length.
//
// Returns ErrInvalidEntrySize when the shard's interval size disagrees with
// the stride, and ErrDataOutOfBounds when the header's data section offset or
// entry count point outside the file.
func Open(path string, entrySize int) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shard %s: %w", path, err)
	}

	header, err := section.ParseShardHeader(m.Bytes())
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("parse shard header %s: %w", path, err)
	}

	if section.EntrySize(header.IntervalSize) != entrySize {
		_ = m.Close()
		return nil, fmt.Errorf("%w: shard %s has %d-step intervals, stride %d != dataset stride %d",
			errs.ErrInvalidEntrySize, path, header.IntervalSize, section.EntrySize(header.IntervalSize), entrySize)
	}

	dataEnd := int64(header.DataOffset) + int64(header.EntryCount)*int64(entrySize) //nolint: gosec
	if header.DataOffset > uint64(m.Size()) || dataEnd > int64(m.Size()) {          //nolint: gosec
		_ = m.Close()
		return nil, fmt.Errorf("%w: shard %s declares data section [%d, %d) in a %d-byte file",
			errs.ErrDataOutOfBounds, path, header.DataOffset, dataEnd, m.Size())
	}

	return &Reader{
		path:      path,
		m:         m,
		header:    header,
		engine:    header.Engine(),
		entrySize: entrySize,
	}, nil
}

// Header returns the validated shard header.
func (r *Reader) Header() section.ShardHeader {
	return r.header
}

// Engine returns the endian engine for the shard's declared byte order.
func (r *Reader) Engine() endian.EndianEngine {
	return r.engine
}

// Path returns the shard file path.
func (r *Reader) Path() string {
	return r.path
}

// Size returns the mapped file size in bytes.
func (r *Reader) Size() int {
	return r.m.Size()
}

// Close releases the memory mapping. Idempotent.
func (r *Reader) Close() error {
	return r.m.Close()
}

// Prefetch hints the kernel that the data section will be scanned soon. It is
// issued ahead of processing order to hide page-in latency; failures are
// ignored because the hint is purely advisory.
func (r *Reader) Prefetch() {
	_ = r.m.Advise(mmap.AccessWillNeed)
}

// BuildIndex scans the shard's entry records linearly and returns the entry
// position of every requested trajectory ID present in this shard.
//
// Only the leading 8-byte ID field of each fixed-stride record is read, and
// only requested IDs are recorded. IDs in the requested set but absent from
// the shard simply have no key in the result.
func (r *Reader) BuildIndex(requested *roaring64.Bitmap) map[uint64]uint32 {
	index := make(map[uint64]uint32, requested.GetCardinality())
	data := r.m.Bytes()

	offset := int(r.header.DataOffset) //nolint: gosec
	for pos := uint32(0); pos < r.header.EntryCount; pos++ {
		id := section.EntryID(data[offset:], r.engine)
		if requested.Contains(id) {
			index[id] = pos
		}
		offset += r.entrySize
	}

	return index
}

// Entry returns the entry header and raw sample bytes of the entry at the
// given data-section position.
//
// The sample slice has one 12-byte slot per time step of the interval and
// aliases the mapping; callers must copy what they keep before Close.
func (r *Reader) Entry(pos uint32) (section.EntryHeader, []byte, error) {
	if pos >= r.header.EntryCount {
		return section.EntryHeader{}, nil, fmt.Errorf("%w: entry %d of %d in %s",
			errs.ErrDataOutOfBounds, pos, r.header.EntryCount, r.path)
	}

	offset := int(r.header.DataOffset) + int(pos)*r.entrySize //nolint: gosec
	data := r.m.Bytes()[offset : offset+r.entrySize]

	header, err := section.ParseEntryHeader(data, r.engine)
	if err != nil {
		return section.EntryHeader{}, nil, err
	}

	return header, data[section.EntryHeaderSize:], nil
}
