package load

import (
	"fmt"

	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/format"
	"github.com/arloliu/trako/section"
)

// Select resolves a Params selection against the trajectory metadata array
// and returns the trajectory IDs to load, in strategy order.
//
// The returned list never contains duplicates. An empty result is an error;
// every other shortfall (SelectDistributed returning fewer than Count,
// SelectExplicit dropping unknown IDs) is accepted silently.
func Select(params Params, metas []section.TrajectoryMeta) ([]uint64, error) {
	var ids []uint64

	switch params.Strategy {
	case format.SelectFirstN:
		ids = selectFirstN(params.Count, metas)
	case format.SelectDistributed:
		ids = selectDistributed(params.Count, metas)
	case format.SelectExplicit:
		ids = selectExplicit(params.Explicit, metas)
	default:
		return nil, fmt.Errorf("unknown selection strategy %d", params.Strategy)
	}

	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, errs.ErrEmptySelection
	}

	return ids, nil
}

// dedupe drops repeated IDs, keeping the first occurrence. A metadata file
// that repeats an ID would otherwise make the positional strategies yield
// the same trajectory twice.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

// selectFirstN takes the first min(n, len(metas)) trajectories in metadata
// order. The metadata array is not sorted; order is whatever the file stored.
func selectFirstN(n int, metas []section.TrajectoryMeta) []uint64 {
	if n <= 0 || n > len(metas) {
		n = len(metas)
	}

	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		ids[i] = metas[i].ID
	}

	return ids
}

// selectDistributed walks the metadata array at stride total/n, stopping once
// n IDs are taken or the array is exhausted. When the stride overshoots near
// the end the result has fewer than n entries, which is accepted.
func selectDistributed(n int, metas []section.TrajectoryMeta) []uint64 {
	total := len(metas)
	if n <= 0 || n > total {
		n = total
	}
	if n == 0 {
		return nil
	}

	step := total / n
	if step < 1 {
		step = 1
	}

	ids := make([]uint64, 0, n)
	for i := 0; i < total && len(ids) < n; i += step {
		ids = append(ids, metas[i].ID)
	}

	return ids
}

// selectExplicit intersects the requested trajectories with the IDs present
// in the metadata, preserving request order. Duplicates in the request fall
// to the shared dedupe pass, which keeps the first occurrence.
func selectExplicit(requested []TrajectorySelection, metas []section.TrajectoryMeta) []uint64 {
	present := make(map[uint64]struct{}, len(metas))
	for i := range metas {
		present[metas[i].ID] = struct{}{}
	}

	ids := make([]uint64, 0, len(requested))
	for _, sel := range requested {
		if _, ok := present[sel.ID]; !ok {
			continue
		}
		ids = append(ids, sel.ID)
	}

	return ids
}
