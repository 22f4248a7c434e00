package section

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/internal/mmap"
)

// ReadDatasetMetaFile reads and validates dataset-meta.bin at path.
//
// The file is memory-mapped for a single direct parse; it is tiny, so no
// streaming is needed. The file size must exactly match the fixed record size.
func ReadDatasetMetaFile(path string) (*DatasetMeta, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset meta %s: %w", path, err)
	}
	defer m.Close()

	if m.Size() != DatasetMetaSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d",
			errs.ErrInvalidMetaSize, path, m.Size(), DatasetMetaSize)
	}

	meta := &DatasetMeta{}
	if err := meta.Parse(m.Bytes()); err != nil {
		return nil, fmt.Errorf("parse dataset meta %s: %w", path, err)
	}

	return meta, nil
}

// ReadTrajectoryMetaFile reads the flat TrajectoryMeta array at path.
//
// A file size that is not an exact multiple of the record size is tolerated:
// complete records are parsed and the trailing byte count is returned so the
// caller can log a warning.
func ReadTrajectoryMetaFile(path string, engine endian.EndianEngine) ([]TrajectoryMeta, int, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open trajectory meta %s: %w", path, err)
	}
	defer m.Close()

	metas, trailing, err := ParseTrajectoryMetaArray(m.Bytes(), engine)
	if err != nil {
		return nil, trailing, fmt.Errorf("parse trajectory meta %s: %w", path, err)
	}

	return metas, trailing, nil
}

// DatasetFilesPresent reports whether the two required metadata files exist in
// dir. Used by pre-flight validation, which must not touch shard data.
func DatasetFilesPresent(dir string) error {
	for _, name := range []string{DatasetMetaFileName, TrajectoryMetaFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("required file %s: %w", name, err)
		}
	}

	return nil
}
