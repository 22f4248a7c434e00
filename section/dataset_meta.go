package section

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
)

// DatasetMeta is the fixed-size record stored in dataset-meta.bin, one per
// dataset. It is read once per load or validate call and is immutable after
// parsing.
type DatasetMeta struct {
	// Magic holds the "TDSH" sentinel.
	Magic [4]byte // byte offset 0-3
	// Version is the dataset format version.
	Version uint32 // byte offset 4-7
	// Endianness declares the byte order of every multi-byte field in the
	// dataset's files.
	Endianness format.Endianness // byte offset 8
	// Precision declares the sample float width. Only float32 is supported.
	Precision format.Precision // byte offset 9
	// FirstTimeStep is the first absolute time step of the dataset, inclusive.
	FirstTimeStep int64 // byte offset 12-19
	// LastTimeStep is the last absolute time step of the dataset, inclusive.
	LastTimeStep int64 // byte offset 20-27
	// IntervalSize is the number of time steps covered by one shard.
	IntervalSize uint32 // byte offset 28-31
	// EntrySize is the byte stride of one shard entry.
	EntrySize uint32 // byte offset 32-35
	// BBoxMin and BBoxMax bound all positions in the dataset.
	BBoxMin Vec3 // byte offset 36-47
	BBoxMax Vec3 // byte offset 48-59
	// TrajectoryCount is the number of TrajectoryMeta records.
	TrajectoryCount uint64 // byte offset 60-67
	// FirstTrajectoryID and LastTrajectoryID bound the ID space.
	FirstTrajectoryID uint64 // byte offset 68-75
	LastTrajectoryID  uint64 // byte offset 76-83
	// CreatedAt is the converter run time, unix timestamp in microseconds.
	CreatedAt int64 // byte offset 84-91
	// ConverterVersion is the version string of the converter tool,
	// at most 32 bytes on disk.
	ConverterVersion string // byte offset 92-123
}

// Engine returns the endian engine matching the dataset's declared byte order.
func (m *DatasetMeta) Engine() endian.EndianEngine {
	if m.Endianness == format.BigEndian {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// Parse parses the record from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the record (must be exactly 124 bytes)
//
// Returns:
//   - error: ErrInvalidMetaSize, ErrInvalidMagic, ErrInvalidVersion,
//     ErrInvalidEndianness, ErrInvalidPrecision or ErrInvalidTimeRange
func (m *DatasetMeta) Parse(data []byte) error {
	if len(data) != DatasetMetaSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrInvalidMetaSize, len(data), DatasetMetaSize)
	}

	copy(m.Magic[:], data[0:4])
	if string(m.Magic[:]) != MagicDataset {
		return fmt.Errorf("%w: got %q, want %q", errs.ErrInvalidMagic, m.Magic[:], MagicDataset)
	}

	// The endianness flag is a single byte and must be read before the engine
	// can be selected for the remaining fields.
	m.Endianness = format.Endianness(data[8])
	if m.Endianness != format.LittleEndian && m.Endianness != format.BigEndian {
		return fmt.Errorf("%w: 0x%02x", errs.ErrInvalidEndianness, data[8])
	}

	m.Precision = format.Precision(data[9])
	if m.Precision != format.PrecisionFloat32 {
		return fmt.Errorf("%w: %s", errs.ErrInvalidPrecision, m.Precision)
	}

	engine := m.Engine()

	m.Version = engine.Uint32(data[4:8])
	if m.Version != FormatVersion {
		return fmt.Errorf("%w: %d", errs.ErrInvalidVersion, m.Version)
	}

	first := engine.Uint64(data[12:20])
	last := engine.Uint64(data[20:28])
	m.FirstTimeStep = *(*int64)(unsafe.Pointer(&first))
	m.LastTimeStep = *(*int64)(unsafe.Pointer(&last))
	if m.FirstTimeStep > m.LastTimeStep {
		return fmt.Errorf("%w: first %d > last %d", errs.ErrInvalidTimeRange, m.FirstTimeStep, m.LastTimeStep)
	}

	m.IntervalSize = engine.Uint32(data[28:32])
	m.EntrySize = engine.Uint32(data[32:36])
	m.BBoxMin = ParseVec3(data[36:48], engine)
	m.BBoxMax = ParseVec3(data[48:60], engine)
	m.TrajectoryCount = engine.Uint64(data[60:68])
	m.FirstTrajectoryID = engine.Uint64(data[68:76])
	m.LastTrajectoryID = engine.Uint64(data[76:84])

	created := engine.Uint64(data[84:92])
	m.CreatedAt = *(*int64)(unsafe.Pointer(&created))

	version := data[92 : 92+ConverterVersionSize]
	if i := bytes.IndexByte(version, 0); i >= 0 {
		version = version[:i]
	}
	m.ConverterVersion = string(version)

	return nil
}

// Bytes serializes the record into a 124-byte slice.
func (m *DatasetMeta) Bytes() []byte {
	b := make([]byte, DatasetMetaSize)
	engine := m.Engine()

	copy(b[0:4], MagicDataset)
	engine.PutUint32(b[4:8], m.Version)
	b[8] = uint8(m.Endianness)
	b[9] = uint8(m.Precision)
	engine.PutUint64(b[12:20], *(*uint64)(unsafe.Pointer(&m.FirstTimeStep)))
	engine.PutUint64(b[20:28], *(*uint64)(unsafe.Pointer(&m.LastTimeStep)))
	engine.PutUint32(b[28:32], m.IntervalSize)
	engine.PutUint32(b[32:36], m.EntrySize)
	copy(b[36:48], AppendVec3(nil, m.BBoxMin, engine))
	copy(b[48:60], AppendVec3(nil, m.BBoxMax, engine))
	engine.PutUint64(b[60:68], m.TrajectoryCount)
	engine.PutUint64(b[68:76], m.FirstTrajectoryID)
	engine.PutUint64(b[76:84], m.LastTrajectoryID)
	engine.PutUint64(b[84:92], *(*uint64)(unsafe.Pointer(&m.CreatedAt)))
	copy(b[92:92+ConverterVersionSize], m.ConverterVersion)

	return b
}

// NewDatasetMeta creates a DatasetMeta with the magic, version and byte order
// fields populated. The remaining fields are set by the converter.
func NewDatasetMeta(endianness format.Endianness) *DatasetMeta {
	m := &DatasetMeta{
		Version:    FormatVersion,
		Endianness: endianness,
		Precision:  format.PrecisionFloat32,
	}
	copy(m.Magic[:], MagicDataset)

	return m
}

// TimeStepCount returns the number of time steps spanned by the dataset,
// both bounds inclusive.
func (m *DatasetMeta) TimeStepCount() int64 {
	return m.LastTimeStep - m.FirstTimeStep + 1
}

// ShardStartStep returns the first absolute time step covered by the shard
// with the given global interval index.
func (m *DatasetMeta) ShardStartStep(intervalIndex int64) int64 {
	return m.FirstTimeStep + intervalIndex*int64(m.IntervalSize)
}
