package shard

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arloliu/trako/section"
)

// Info describes one discovered shard file and the absolute time range it
// covers. It is derived state, rebuilt by Discover on every load call.
type Info struct {
	// Index is the shard file index parsed from the filename. It keys the
	// discovery table and shares its key space with
	// TrajectoryMeta.DataFileIndex.
	Index uint32
	// Path is the absolute or caller-relative path of the shard file.
	Path string
	// IntervalIndex is the global interval index read from the shard's own
	// header, which is authoritative for the time range.
	IntervalIndex int64
	// StartTimeStep and EndTimeStep are the absolute time range, both
	// inclusive. EndTimeStep = StartTimeStep + IntervalSize - 1.
	StartTimeStep int64
	EndTimeStep   int64
}

// Overlaps reports whether the shard's time range intersects the inclusive
// range [start, end]. A shard is relevant to a query iff this holds.
func (i Info) Overlaps(start, end int64) bool {
	return i.StartTimeStep <= end && i.EndTimeStep >= start
}

// Discover enumerates shard files in dir and builds the shard table.
//
// Files that fail to open, are too small or fail header validation are skipped
// with a warning; they are not fatal to the scan. The absolute time range of
// each shard is computed from its header's interval index and the dataset's
// interval size and first time step.
func Discover(dir string, meta *section.DatasetMeta, logger *slog.Logger) (map[uint32]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir %s: %w", dir, err)
	}

	table := make(map[uint32]Info)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		index, ok := parseShardFileName(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := probe(path, index, meta)
		if err != nil {
			logger.Warn("skipping shard file", "path", path, "error", err)
			continue
		}

		table[index] = info
	}

	return table, nil
}

// parseShardFileName extracts the shard index from a shard-<index>.bin name.
func parseShardFileName(name string) (uint32, bool) {
	if !strings.HasPrefix(name, section.ShardFilePrefix) || !strings.HasSuffix(name, section.ShardFileSuffix) {
		return 0, false
	}

	digits := name[len(section.ShardFilePrefix) : len(name)-len(section.ShardFileSuffix)]
	index, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}

	return uint32(index), true
}

// probe validates the shard header and computes the shard's absolute time
// range.
func probe(path string, index uint32, meta *section.DatasetMeta) (Info, error) {
	r, err := Open(path, int(meta.EntrySize))
	if err != nil {
		return Info{}, err
	}
	defer r.Close()

	header := r.Header()
	start := meta.ShardStartStep(header.IntervalIndex)

	return Info{
		Index:         index,
		Path:          path,
		IntervalIndex: header.IntervalIndex,
		StartTimeStep: start,
		EndTimeStep:   start + int64(header.IntervalSize) - 1,
	}, nil
}
