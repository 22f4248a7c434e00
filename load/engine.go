package load

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/trako/endian"
	"github.com/arloliu/trako/section"
	"github.com/arloliu/trako/shard"
)

// block is one trajectory's contribution from one shard, already clamped to
// the requested window and in ascending time order.
type block struct {
	steps   []int64
	samples []section.Vec3
}

// shardResult collects blocks produced by the per-trajectory workers of one
// shard. Its lock is scoped to that shard; workers of different shards never
// contend with each other.
type shardResult struct {
	mu     sync.Mutex
	blocks map[uint64]block
}

func (s *shardResult) put(id uint64, b block) {
	s.mu.Lock()
	s.blocks[id] = b
	s.mu.Unlock()
}

// assemble runs the shard-parallel extraction for a resolved plan and merges
// the per-shard blocks into per-trajectory sample sequences.
//
// Shards are processed concurrently but merged sequentially in ascending
// interval order. Each shard's extraction is itself in time order, so the
// merged sequence per trajectory is time-ordered with no post-merge sort.
func (l *Loader) assemble(ctx context.Context, p *plan, prog *progress) ([]*LoadedTrajectory, error) {
	table, err := shard.Discover(l.dir, p.meta, l.logger)
	if err != nil {
		return nil, err
	}

	relevant := make([]shard.Info, 0, len(table))
	for _, info := range table {
		if info.Overlaps(p.start, p.end) {
			relevant = append(relevant, info)
		}
	}
	sort.Slice(relevant, func(i, j int) bool { return relevant[i].Index < relevant[j].Index })

	if prog != nil {
		prog.shardsTotal.Store(int64(len(relevant)))
	}

	requested := roaring64.New()
	for _, id := range p.selected {
		requested.Add(id)
	}

	results := make([]*shardResult, len(relevant))
	for i := range results {
		results[i] = &shardResult{blocks: make(map[uint64]block, len(p.selected))}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i := range relevant {
		i := i
		g.Go(func() error {
			if err := l.processShard(gctx, relevant[i], p, requested, results[i]); err != nil {
				return err
			}
			if prog != nil {
				prog.shardsDone.Add(1)
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*LoadedTrajectory, 0, len(p.selected))
	byID := make(map[uint64]*LoadedTrajectory, len(p.selected))
	for _, id := range p.selected {
		// Select deduplicates and only yields IDs present in the metadata
		// array, so the lookup cannot miss.
		tm := p.metaByID[id]
		t := &LoadedTrajectory{ID: id, Extent: tm.Extent}
		byID[id] = t
		out = append(out, t)
	}

	for i := range relevant {
		for _, id := range p.selected {
			b, ok := results[i].blocks[id]
			if !ok {
				continue
			}
			t := byID[id]
			t.Steps = append(t.Steps, b.steps...)
			t.Samples = append(t.Samples, b.samples...)
		}
	}

	return out, nil
}

// processShard maps one shard file, builds the requested-ID index, and runs
// the per-trajectory extraction workers. The mapping is released when the
// shard's processing completes.
//
// A physically missing shard file is logged and skipped; any other open or
// read failure aborts the load.
func (l *Loader) processShard(ctx context.Context, info shard.Info, p *plan, requested *roaring64.Bitmap, out *shardResult) error {
	// Throttle by the worst-case bytes this shard can hand back: one full
	// entry per requested trajectory.
	ioBytes := section.EntrySize(p.meta.IntervalSize) * int(requested.GetCardinality()) //nolint: gosec
	if err := l.res.AcquireIO(ctx, ioBytes); err != nil {
		return err
	}

	r, err := shard.Open(info.Path, int(p.meta.EntrySize))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("shard file missing, skipping", "path", info.Path)

			return nil
		}

		return err
	}
	defer r.Close()

	r.Prefetch()
	index := r.BuildIndex(requested)
	shardStart := p.meta.ShardStartStep(info.IntervalIndex)

	sub, sctx := errgroup.WithContext(ctx)
	sub.SetLimit(l.workers)
	for _, id := range p.selected {
		id := id
		tm := p.metaByID[id]
		if !tm.Overlaps(info.StartTimeStep, info.EndTimeStep) {
			continue
		}
		winStart, winEnd := p.window(id)
		if winStart > winEnd {
			continue
		}
		pos, ok := index[id]
		if !ok {
			continue
		}

		sub.Go(func() error {
			if err := sctx.Err(); err != nil {
				return err
			}

			b, err := l.extractEntry(r, info.Path, pos, id, p, shardStart, winStart, winEnd)
			if err != nil {
				return err
			}
			if len(b.samples) > 0 {
				out.put(id, b)
			}

			return nil
		})
	}

	return sub.Wait()
}

// extractEntry reads the entry at pos and extracts the window's samples for
// the given trajectory. An entry whose stored ID does not match the one the
// index claims is a corrupted or stale shard; its contribution is dropped
// with a warning rather than failing the load.
func (l *Loader) extractEntry(r *shard.Reader, path string, pos uint32, id uint64,
	p *plan, shardStart, winStart, winEnd int64,
) (block, error) {
	header, raw, err := r.Entry(pos)
	if err != nil {
		return block{}, err
	}
	if header.ID != id {
		l.logger.Warn("entry ID mismatch, dropping contribution",
			"path", path, "want", id, "got", header.ID)

		return block{}, nil
	}
	if header.IsEmpty() {
		return block{}, nil
	}

	return extract(&header, raw, r.Engine(), p.meta.IntervalSize, shardStart, winStart, winEnd, p.stride), nil
}

// extract clamps an entry's valid sample run against the requested window
// and copies the surviving samples out of the mapping.
//
// With stride 1 the clamped run is a single contiguous block copy; the
// on-disk sample layout is bit-compatible with Vec3 when the shard's byte
// order matches the host. With stride > 1 samples are copied one at a time
// on the stride grid anchored at the window start, dropping NaN samples.
func extract(header *section.EntryHeader, raw []byte, engine endian.EndianEngine,
	intervalSize uint32, shardStart, winStart, winEnd int64, stride int,
) block {
	lo32, hi32 := header.ValidRange(intervalSize)
	lo, hi := int64(lo32), int64(hi32)

	if w := winStart - shardStart; w > lo {
		lo = w
	}
	if w := winEnd - shardStart + 1; w < hi {
		hi = w
	}
	if lo >= hi {
		return block{}
	}

	if stride <= 1 {
		n := hi - lo
		samples := make([]section.Vec3, n)
		src := raw[lo*section.SampleSize : hi*section.SampleSize]
		if endian.CompareNativeEndian(engine) {
			copy(samples, section.SamplesFromBytes(src))
		} else {
			for i := range samples {
				samples[i] = section.ParseVec3(src[i*section.SampleSize:], engine)
			}
		}

		steps := make([]int64, n)
		for i := range steps {
			steps[i] = shardStart + lo + int64(i)
		}

		return block{steps: steps, samples: samples}
	}

	s := int64(stride)
	first := lo
	if r := (shardStart + lo - winStart) % s; r != 0 {
		first = lo + (s - r)
	}

	var b block
	for t := first; t < hi; t += s {
		v := section.ParseVec3(raw[t*section.SampleSize:], engine)
		if v.IsNaN() {
			continue
		}
		b.steps = append(b.steps, shardStart+t)
		b.samples = append(b.samples, v)
	}

	return b
}
