package section

import (
	"fmt"
	"unsafe"

	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
)

// ShardHeader is the fixed-size header at the start of every shard file.
type ShardHeader struct {
	// Magic holds the "TDDB" sentinel.
	Magic [4]byte // byte offset 0-3
	// Version is the shard format version.
	Version uint32 // byte offset 4-7
	// Endianness declares the byte order of the header and entry fields.
	Endianness format.Endianness // byte offset 8
	// IntervalIndex is the global interval index of this shard. It is the
	// authoritative source for the shard's time range; the index parsed from
	// the filename only keys the discovery table.
	IntervalIndex int64 // byte offset 12-19
	// IntervalSize is the number of time steps covered by this shard.
	IntervalSize uint32 // byte offset 20-23
	// EntryCount is the number of entries in the data section.
	EntryCount uint32 // byte offset 24-27
	// DataOffset is the byte offset where the entry data section begins.
	DataOffset uint64 // byte offset 28-35
}

// Engine returns the endian engine matching the shard's declared byte order.
func (h *ShardHeader) Engine() endian.EndianEngine {
	if h.Endianness == format.BigEndian {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// Parse parses the header from the start of a mapped shard region.
//
// Parameters:
//   - data: Byte slice starting at the beginning of the shard file
//     (must be at least 36 bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize, ErrInvalidMagic, ErrInvalidVersion or
//     ErrInvalidEndianness
func (h *ShardHeader) Parse(data []byte) error {
	if len(data) < ShardHeaderSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrInvalidHeaderSize, len(data), ShardHeaderSize)
	}

	copy(h.Magic[:], data[0:4])
	if string(h.Magic[:]) != MagicShard {
		return fmt.Errorf("%w: got %q, want %q", errs.ErrInvalidMagic, h.Magic[:], MagicShard)
	}

	h.Endianness = format.Endianness(data[8])
	if h.Endianness != format.LittleEndian && h.Endianness != format.BigEndian {
		return fmt.Errorf("%w: 0x%02x", errs.ErrInvalidEndianness, data[8])
	}

	engine := h.Engine()

	h.Version = engine.Uint32(data[4:8])
	if h.Version != FormatVersion {
		return fmt.Errorf("%w: %d", errs.ErrInvalidVersion, h.Version)
	}

	interval := engine.Uint64(data[12:20])
	h.IntervalIndex = *(*int64)(unsafe.Pointer(&interval))
	h.IntervalSize = engine.Uint32(data[20:24])
	h.EntryCount = engine.Uint32(data[24:28])
	h.DataOffset = engine.Uint64(data[28:36])

	return nil
}

// Bytes serializes the header into a 36-byte slice.
func (h *ShardHeader) Bytes() []byte {
	b := make([]byte, ShardHeaderSize)
	engine := h.Engine()

	copy(b[0:4], MagicShard)
	engine.PutUint32(b[4:8], h.Version)
	b[8] = uint8(h.Endianness)
	engine.PutUint64(b[12:20], *(*uint64)(unsafe.Pointer(&h.IntervalIndex)))
	engine.PutUint32(b[20:24], h.IntervalSize)
	engine.PutUint32(b[24:28], h.EntryCount)
	engine.PutUint64(b[28:36], h.DataOffset)

	return b
}

// NewShardHeader creates a ShardHeader for the given interval. EntryCount and
// DataOffset are set by the writer.
func NewShardHeader(endianness format.Endianness, intervalIndex int64, intervalSize uint32) *ShardHeader {
	h := &ShardHeader{
		Version:       FormatVersion,
		Endianness:    endianness,
		IntervalIndex: intervalIndex,
		IntervalSize:  intervalSize,
		DataOffset:    ShardHeaderSize,
	}
	copy(h.Magic[:], MagicShard)

	return h
}

// ParseShardHeader parses a ShardHeader from a byte slice.
func ParseShardHeader(data []byte) (ShardHeader, error) {
	h := ShardHeader{}
	if err := h.Parse(data); err != nil {
		return ShardHeader{}, err
	}

	return h, nil
}
