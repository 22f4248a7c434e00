package format

type (
	Endianness        uint8
	Precision         uint8
	SelectionStrategy uint8
	CompressionType   uint8
)

const (
	LittleEndian Endianness = 0x0 // LittleEndian marks files written in little-endian byte order.
	BigEndian    Endianness = 0x1 // BigEndian marks files written in big-endian byte order.

	PrecisionFloat32 Precision = 0x0 // PrecisionFloat32 represents single-precision position samples.
	PrecisionFloat64 Precision = 0x1 // PrecisionFloat64 is reserved; readers reject it.

	SelectFirstN      SelectionStrategy = 0x1 // SelectFirstN loads the first N trajectories in metadata order.
	SelectDistributed SelectionStrategy = 0x2 // SelectDistributed spreads N picks evenly across the metadata array.
	SelectExplicit    SelectionStrategy = 0x3 // SelectExplicit loads a caller-supplied list of trajectory IDs.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (e Endianness) String() string {
	switch e {
	case LittleEndian:
		return "LittleEndian"
	case BigEndian:
		return "BigEndian"
	default:
		return "Unknown"
	}
}

func (p Precision) String() string {
	switch p {
	case PrecisionFloat32:
		return "Float32"
	case PrecisionFloat64:
		return "Float64"
	default:
		return "Unknown"
	}
}

func (s SelectionStrategy) String() string {
	switch s {
	case SelectFirstN:
		return "FirstN"
	case SelectDistributed:
		return "Distributed"
	case SelectExplicit:
		return "Explicit"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
