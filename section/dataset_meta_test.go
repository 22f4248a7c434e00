package section

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
)

func testDatasetMeta(endianness format.Endianness) *DatasetMeta {
	meta := NewDatasetMeta(endianness)
	meta.FirstTimeStep = 100
	meta.LastTimeStep = 499
	meta.IntervalSize = 100
	meta.EntrySize = uint32(EntrySize(100)) //nolint: gosec
	meta.BBoxMin = Vec3{X: -10, Y: -20, Z: -30}
	meta.BBoxMax = Vec3{X: 10, Y: 20, Z: 30}
	meta.TrajectoryCount = 42
	meta.FirstTrajectoryID = 1000
	meta.LastTrajectoryID = 1041
	meta.CreatedAt = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).UnixMicro()
	meta.ConverterVersion = "tdconv 2.4.1"

	return meta
}

func TestDatasetMeta_RoundTrip(t *testing.T) {
	for _, endianness := range []format.Endianness{format.LittleEndian, format.BigEndian} {
		t.Run(endianness.String(), func(t *testing.T) {
			original := testDatasetMeta(endianness)

			data := original.Bytes()
			require.Len(t, data, DatasetMetaSize)

			parsed := &DatasetMeta{}
			require.NoError(t, parsed.Parse(data))
			require.Equal(t, original, parsed)
		})
	}
}

func TestDatasetMeta_Parse(t *testing.T) {
	t.Run("Invalid size", func(t *testing.T) {
		meta := &DatasetMeta{}
		err := meta.Parse(make([]byte, DatasetMetaSize-1))

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrInvalidMetaSize)
	})

	t.Run("Invalid magic", func(t *testing.T) {
		data := testDatasetMeta(format.LittleEndian).Bytes()
		copy(data[0:4], "XXXX")

		meta := &DatasetMeta{}
		err := meta.Parse(data)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrInvalidMagic)
	})

	t.Run("Invalid endianness flag", func(t *testing.T) {
		data := testDatasetMeta(format.LittleEndian).Bytes()
		data[8] = 0x7F

		meta := &DatasetMeta{}
		require.ErrorIs(t, meta.Parse(data), errs.ErrInvalidEndianness)
	})

	t.Run("Unsupported precision", func(t *testing.T) {
		data := testDatasetMeta(format.LittleEndian).Bytes()
		data[9] = uint8(format.PrecisionFloat64)

		meta := &DatasetMeta{}
		require.ErrorIs(t, meta.Parse(data), errs.ErrInvalidPrecision)
	})

	t.Run("Unsupported version", func(t *testing.T) {
		original := testDatasetMeta(format.LittleEndian)
		original.Version = 99

		meta := &DatasetMeta{}
		require.ErrorIs(t, meta.Parse(original.Bytes()), errs.ErrInvalidVersion)
	})

	t.Run("Inverted time range", func(t *testing.T) {
		original := testDatasetMeta(format.LittleEndian)
		original.FirstTimeStep = 500
		original.LastTimeStep = 100

		meta := &DatasetMeta{}
		require.ErrorIs(t, meta.Parse(original.Bytes()), errs.ErrInvalidTimeRange)
	})
}

func TestDatasetMeta_Helpers(t *testing.T) {
	meta := testDatasetMeta(format.LittleEndian)

	require.Equal(t, int64(400), meta.TimeStepCount())
	require.Equal(t, int64(100), meta.ShardStartStep(0))
	require.Equal(t, int64(300), meta.ShardStartStep(2))
}

func TestDatasetMeta_ConverterVersionTruncation(t *testing.T) {
	meta := testDatasetMeta(format.LittleEndian)
	meta.ConverterVersion = "this version string is exactly.."

	parsed := &DatasetMeta{}
	require.NoError(t, parsed.Parse(meta.Bytes()))
	require.Equal(t, meta.ConverterVersion, parsed.ConverterVersion)
	require.Len(t, parsed.ConverterVersion, ConverterVersionSize)
}
