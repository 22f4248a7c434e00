package section

// File names and naming pattern inside a dataset directory.
const (
	DatasetMetaFileName    = "dataset-meta.bin"    // fixed-size DatasetMeta record
	TrajectoryMetaFileName = "dataset-trajmeta.bin" // flat TrajectoryMeta array
	ShardFilePrefix        = "shard-"               // shard files are shard-<index>.bin
	ShardFileSuffix        = ".bin"
)

// Magic sentinels. Stored as raw bytes at the start of each file, independent
// of the declared byte order.
const (
	MagicDataset = "TDSH" // dataset-meta.bin
	MagicShard   = "TDDB" // shard-<N>.bin
)

// FormatVersion is the dataset format version this package reads and writes.
const FormatVersion = 1

// Fixed record sizes in bytes.
const (
	DatasetMetaSize      = 124 // exact size of dataset-meta.bin
	TrajectoryMetaSize   = 44  // per-record size in dataset-trajmeta.bin
	ShardHeaderSize      = 36  // fixed header at the start of each shard file
	EntryHeaderSize      = 16  // fixed header at the start of each shard entry
	SampleSize           = 12  // one [3]float32 position sample
	ConverterVersionSize = 32  // NUL-padded converter version string
)

// NoValidData is the EntryHeader.StartStep sentinel marking an entry that
// holds no valid samples for its interval.
const NoValidData int32 = -1

// EntrySize returns the byte stride of one shard entry for the given interval
// size: the fixed entry header plus one sample slot per time step.
func EntrySize(intervalSize uint32) int {
	return EntryHeaderSize + int(intervalSize)*SampleSize
}
