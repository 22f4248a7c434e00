package archive

import (
	"fmt"
	"os"
	"time"

	"github.com/arloliu/trako/compress"
	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
	"github.com/arloliu/trako/internal/pool"
	"github.com/arloliu/trako/load"
	"github.com/arloliu/trako/section"
)

const (
	// Magic identifies an archive file.
	Magic = "TDAR"

	// Version is the archive format version this package writes.
	Version = 1

	// HeaderSize is the fixed archive header size in bytes.
	HeaderSize = 32

	// recordFixedSize is the fixed portion of one payload record: ID, extent
	// and sample count.
	recordFixedSize = 8 + section.SampleSize + 4
)

// Save writes the result to path as a compressed archive.
func Save(path string, result *load.Result, compression format.CompressionType) error {
	codec, err := compress.CreateCodec(compression, "archive")
	if err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	for _, traj := range result.Trajectories {
		buf.B = engine.AppendUint64(buf.B, traj.ID)
		buf.B = section.AppendVec3(buf.B, traj.Extent, engine)
		buf.B = engine.AppendUint32(buf.B, uint32(len(traj.Samples))) //nolint: gosec
		for _, step := range traj.Steps {
			buf.B = engine.AppendUint64(buf.B, uint64(step)) //nolint: gosec
		}
		for _, v := range traj.Samples {
			buf.B = section.AppendVec3(buf.B, v, engine)
		}
	}

	payload, err := codec.Compress(buf.Bytes())
	if err != nil {
		return fmt.Errorf("compress archive payload: %w", err)
	}

	header := make([]byte, 0, HeaderSize)
	header = append(header, Magic...)
	header = engine.AppendUint32(header, Version)
	header = append(header, byte(format.LittleEndian), byte(compression), 0, 0)
	header = engine.AppendUint32(header, uint32(len(result.Trajectories))) //nolint: gosec
	header = engine.AppendUint64(header, uint64(buf.Len()))                //nolint: gosec
	header = engine.AppendUint64(header, uint64(time.Now().Unix()))        //nolint: gosec

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := f.Write(header); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Load reads an archive written by Save and reconstructs the result,
// including its memory accounting.
func Load(path string) (*load.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: archive %s is %d bytes, want at least %d",
			errs.ErrInvalidHeaderSize, path, len(data), HeaderSize)
	}
	if string(data[0:4]) != Magic {
		return nil, fmt.Errorf("%w: archive %s", errs.ErrInvalidMagic, path)
	}

	endianness := format.Endianness(data[8])
	var engine endian.EndianEngine
	switch endianness {
	case format.LittleEndian:
		engine = endian.GetLittleEndianEngine()
	case format.BigEndian:
		engine = endian.GetBigEndianEngine()
	default:
		return nil, fmt.Errorf("%w: archive flag 0x%02x", errs.ErrInvalidEndianness, data[8])
	}

	if v := engine.Uint32(data[4:8]); v != Version {
		return nil, fmt.Errorf("%w: archive version %d, want %d", errs.ErrInvalidVersion, v, Version)
	}

	compression := format.CompressionType(data[9])
	count := engine.Uint32(data[12:16])
	uncompressedSize := engine.Uint64(data[16:24])

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	payload, err := codec.Decompress(data[HeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("decompress archive %s: %w", path, err)
	}
	if uint64(len(payload)) != uncompressedSize {
		return nil, fmt.Errorf("%w: archive %s payload is %d bytes, header declares %d",
			errs.ErrDataOutOfBounds, path, len(payload), uncompressedSize)
	}

	result := &load.Result{Trajectories: make([]*load.LoadedTrajectory, 0, count)}
	offset := 0
	for i := uint32(0); i < count; i++ {
		traj, n, err := parseRecord(payload[offset:], engine)
		if err != nil {
			return nil, fmt.Errorf("archive %s record %d: %w", path, i, err)
		}
		offset += n
		result.Trajectories = append(result.Trajectories, traj)
		result.TotalBytes += traj.MemoryBytes()
	}
	if offset != len(payload) {
		return nil, fmt.Errorf("%w: archive %s has %d trailing payload bytes",
			errs.ErrDataOutOfBounds, path, len(payload)-offset)
	}

	return result, nil
}

// parseRecord decodes one trajectory record and returns its byte length.
func parseRecord(data []byte, engine endian.EndianEngine) (*load.LoadedTrajectory, int, error) {
	if len(data) < recordFixedSize {
		return nil, 0, errs.ErrDataOutOfBounds
	}

	traj := &load.LoadedTrajectory{
		ID:     engine.Uint64(data[0:8]),
		Extent: section.ParseVec3(data[8:], engine),
	}
	count := int(engine.Uint32(data[20:24]))

	size := recordFixedSize + count*(8+section.SampleSize)
	if len(data) < size {
		return nil, 0, errs.ErrDataOutOfBounds
	}
	if count == 0 {
		return traj, size, nil
	}

	traj.Steps = make([]int64, count)
	offset := recordFixedSize
	for i := range traj.Steps {
		traj.Steps[i] = int64(engine.Uint64(data[offset : offset+8])) //nolint: gosec
		offset += 8
	}

	traj.Samples = make([]section.Vec3, count)
	for i := range traj.Samples {
		traj.Samples[i] = section.ParseVec3(data[offset:], engine)
		offset += section.SampleSize
	}

	return traj, size, nil
}
