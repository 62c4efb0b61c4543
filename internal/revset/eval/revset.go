package eval

import (
	"context"

	"github.com/teranos/revset/internal/revset/types"
)

// Revset is the evaluated, ordered result of a query (§4.3/§6's
// user-facing surface): iter()/iter_graph()/containing_fn()/count_at_most.
// Evaluation in this engine is eager (ids is fully materialized by
// evalSet before Revset is constructed) rather than the fully lazy
// streaming interface a real backend would offer; Iter's channel form
// still lets a caller stop consuming early without changing the
// evaluation strategy.
type Revset struct {
	ev  *Evaluator
	ids []types.CommitId
}

// Len returns the number of commits in the set.
func (r *Revset) Len() int { return len(r.ids) }

// Ids returns the ordered commit-id slice backing the set. Callers must
// not mutate the returned slice.
func (r *Revset) Ids() []types.CommitId { return r.ids }

// Iter streams the set over a channel in reverse-topological order,
// closing it once exhausted or ctx is canceled.
func (r *Revset) Iter(ctx context.Context) <-chan types.CommitId {
	out := make(chan types.CommitId)
	go func() {
		defer close(out)
		for _, id := range r.ids {
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// GraphEdge is one parent edge emitted by IterGraph, alongside the kind of
// edge it is (direct vs indirect, when an intermediate commit was pruned
// from the requested set).
type GraphEdge struct {
	Parent types.CommitId
	Direct bool
}

// IterGraph streams each commit in the set paired with the subset of its
// parent edges that land on another member of the set (direct edges) or,
// when a parent chain leaves the set, the nearest ancestor still in it
// (indirect edges) — the data a caller needs to render a topology without
// walking the full backend graph itself.
func (r *Revset) IterGraph(ctx context.Context) (map[string][]GraphEdge, error) {
	member := map[string]bool{}
	for _, id := range r.ids {
		member[id.Hex()] = true
	}
	edges := make(map[string][]GraphEdge, len(r.ids))
	for _, id := range r.ids {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var out []GraphEdge
		for _, p := range r.ev.Index.Parents(id) {
			if member[p.Hex()] {
				out = append(out, GraphEdge{Parent: p, Direct: true})
				continue
			}
			if anc := r.nearestMemberAncestor(p, member); anc != nil {
				out = append(out, GraphEdge{Parent: anc, Direct: false})
			}
		}
		edges[id.Hex()] = out
	}
	return edges, nil
}

func (r *Revset) nearestMemberAncestor(start types.CommitId, member map[string]bool) types.CommitId {
	seen := map[string]bool{}
	queue := []types.CommitId{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		key := id.Hex()
		if seen[key] {
			continue
		}
		seen[key] = true
		if member[key] {
			return id
		}
		queue = append(queue, r.ev.Index.Parents(id)...)
	}
	return nil
}

// ContainingFn returns a predicate closure testing set membership in O(1),
// the "containing_fn()" capability from §4.3/§6 used by callers that need
// to test many candidate commits against one evaluated set.
func (r *Revset) ContainingFn() func(types.CommitId) bool {
	member := map[string]bool{}
	for _, id := range r.ids {
		member[id.Hex()] = true
	}
	return func(id types.CommitId) bool { return member[id.Hex()] }
}

// CountAtMost returns min(len(set), limit) without requiring the caller to
// materialize the full slice themselves.
func (r *Revset) CountAtMost(limit int) int {
	if limit < 0 || limit > len(r.ids) {
		return len(r.ids)
	}
	return limit
}
