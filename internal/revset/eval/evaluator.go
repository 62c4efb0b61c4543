// Package eval implements the evaluator (§4.3): it consumes a parsed
// expression, resolves CommitRef/AtOperation nodes against a resolver, and
// executes the set algebra against a backend.Index to produce an ordered
// Revset.
package eval

import (
	"context"
	"sort"

	"golang.org/x/time/rate"

	"github.com/teranos/revset/internal/revset/ast"
	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/filter"
	"github.com/teranos/revset/internal/revset/resolve"
	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

// Evaluator executes a resolved-or-resolving expression tree against one
// repository scope: a backend, an index, a resolver bound to a view
// snapshot, and the set of commits that scope treats as "visible" (the
// seed for All{}/VisibleHeads{}). at_operation(...) spawns a child
// Evaluator with a different resolver/visible-heads scope over the same
// physical backend+index (§4.3's design note b: results are not
// intersected with the outer view).
type Evaluator struct {
	Backend      backend.Backend
	Index        backend.Index
	Diff         backend.Diff
	OpStore      backend.OperationStore
	Resolver     *resolve.Resolver
	VisibleHeads []types.CommitId
	Workspace    string

	// Limiter throttles the evaluator's backend commit reads (readCommit,
	// used by merges(), latest() and filter predicates), the way a real
	// backend would be rate-limited against disk or a remote object store
	// (§4.4 domain-stack wiring). Graph walks go through the Index and are
	// not throttled.
	Limiter *rate.Limiter
}

// New builds a top-level Evaluator. limiter may be nil (no throttling).
func New(be backend.Backend, idx backend.Index, diff backend.Diff, ops backend.OperationStore, r *resolve.Resolver, visibleHeads []types.CommitId, workspace string, limiter *rate.Limiter) *Evaluator {
	return &Evaluator{
		Backend: be, Index: idx, Diff: diff, OpStore: ops,
		Resolver: r, VisibleHeads: visibleHeads, Workspace: workspace,
		Limiter: limiter,
	}
}

// Evaluate normalizes and evaluates expr, returning a Revset (§6's
// "User-facing surface" return value, once parsed).
func (e *Evaluator) Evaluate(ctx context.Context, expr ast.Expr) (*Revset, error) {
	ids, err := e.evalSet(ctx, ast.Normalize(expr))
	if err != nil {
		return nil, err
	}
	return &Revset{ev: e, ids: ids}, nil
}

func (e *Evaluator) throttle(ctx context.Context) error {
	if e.Limiter == nil {
		return nil
	}
	return e.Limiter.Wait(ctx)
}

func (e *Evaluator) readCommit(ctx context.Context, id types.CommitId) (*types.Commit, error) {
	if err := e.throttle(ctx); err != nil {
		return nil, err
	}
	c, err := e.Backend.ReadCommit(ctx, id)
	if err != nil {
		return nil, rerrors.Wrapf(rerrors.ErrBackend, "read commit %s: %v", id.Hex(), err)
	}
	return c, nil
}

// evalSet is the core recursive evaluator: every Expr variant reduces to a
// commit-id slice ordered by strictly decreasing index position.
func (e *Evaluator) evalSet(ctx context.Context, expr ast.Expr) ([]types.CommitId, error) {
	switch n := expr.(type) {
	case ast.None:
		return nil, nil

	case ast.All:
		return e.ancestorsOf(e.VisibleHeads, ast.NoGenerationLimit)

	case ast.VisibleHeads:
		return e.sortDesc(dedupe(e.VisibleHeads)), nil

	case ast.Root:
		root := e.Backend.RootCommitId()
		if root == nil {
			return nil, nil
		}
		return []types.CommitId{root}, nil

	case ast.Commits:
		return e.sortDesc(dedupe(n.Ids)), nil

	case ast.CommitRef:
		ids, err := e.Resolver.ResolveRef(n)
		if err != nil {
			return nil, err
		}
		return e.sortDesc(dedupe(ids)), nil

	case ast.Ancestors:
		heads, err := e.evalSet(ctx, n.Heads)
		if err != nil {
			return nil, err
		}
		return e.ancestorsOf(heads, n.Depth)

	case ast.Descendants:
		roots, err := e.evalSet(ctx, n.Roots)
		if err != nil {
			return nil, err
		}
		return e.descendantsOf(roots, n.Depth)

	case ast.Range:
		return e.evalRange(ctx, n)

	case ast.DagRange:
		rootsIds, err := e.evalSet(ctx, n.Roots)
		if err != nil {
			return nil, err
		}
		headsIds, err := e.evalSet(ctx, n.Heads)
		if err != nil {
			return nil, err
		}
		desc, err := e.descendantsOf(rootsIds, ast.NoGenerationLimit)
		if err != nil {
			return nil, err
		}
		anc, err := e.ancestorsOf(headsIds, ast.NoGenerationLimit)
		if err != nil {
			return nil, err
		}
		return intersectIds(desc, anc), nil

	case ast.Reachable:
		return e.evalReachable(ctx, n)

	case ast.Heads:
		set, err := e.evalSet(ctx, n.Set)
		if err != nil {
			return nil, err
		}
		return e.Index.HeadsOf(set), nil

	case ast.Roots:
		set, err := e.evalSet(ctx, n.Set)
		if err != nil {
			return nil, err
		}
		return e.Index.RootsOf(set), nil

	case ast.ForkPoint:
		return e.evalForkPoint(ctx, n)

	case ast.Merges:
		all, err := e.ancestorsOf(e.VisibleHeads, ast.NoGenerationLimit)
		if err != nil {
			return nil, err
		}
		var merges []types.CommitId
		for _, id := range all {
			c, err := e.readCommit(ctx, id)
			if err != nil {
				return nil, err
			}
			if c.IsMerge() {
				merges = append(merges, id)
			}
		}
		return merges, nil

	case ast.Latest:
		return e.evalLatest(ctx, n)

	case ast.Filter:
		return e.evalFilterScope(ctx, n.Predicate)

	case ast.AsFilter:
		return e.evalSet(ctx, n.Set)

	case ast.AtOperation:
		return e.evalAtOperation(ctx, n)

	case ast.Present:
		ids, err := e.evalSet(ctx, n.Inner)
		if err != nil {
			if rerrors.Recoverable(err) {
				return nil, nil
			}
			return nil, err
		}
		return ids, nil

	case ast.Union:
		a, err := e.evalSet(ctx, n.A)
		if err != nil {
			return nil, err
		}
		b, err := e.evalSet(ctx, n.B)
		if err != nil {
			return nil, err
		}
		return e.sortDesc(dedupe(append(append([]types.CommitId{}, a...), b...))), nil

	case ast.Intersection:
		return e.evalIntersection(ctx, n)

	case ast.Difference:
		return e.evalDifference(ctx, n)

	case ast.Coalesce:
		return e.evalCoalesce(ctx, n)

	default:
		return nil, rerrors.Newf("revset: unhandled expression node %T", expr)
	}
}

func (e *Evaluator) sortDesc(ids []types.CommitId) []types.CommitId {
	out := append([]types.CommitId{}, ids...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, _ := e.Index.PositionOf(out[i])
		pj, _ := e.Index.PositionOf(out[j])
		return pi > pj
	})
	return out
}

func (e *Evaluator) ancestorsOf(heads []types.CommitId, depth uint64) ([]types.CommitId, error) {
	if depth == ast.NoGenerationLimit {
		ids, err := e.Index.AncestorsOf(heads)
		if err != nil {
			return nil, rerrors.Wrap(err, "ancestors")
		}
		return ids, nil
	}
	return e.bfs(heads, depth, e.Index.Parents), nil
}

func (e *Evaluator) descendantsOf(roots []types.CommitId, depth uint64) ([]types.CommitId, error) {
	ids := e.bfs(roots, depth, e.Index.Children)
	return ids, nil
}

// bfs performs a multi-source breadth-first walk up to depth layers
// (ast.NoGenerationLimit = unbounded), emitting each commit once (§4.3).
func (e *Evaluator) bfs(sources []types.CommitId, depth uint64, adjacency func(types.CommitId) []types.CommitId) []types.CommitId {
	seen := map[string]bool{}
	var result []types.CommitId
	frontier := dedupe(sources)
	for _, id := range frontier {
		seen[id.Hex()] = true
		result = append(result, id)
	}
	for layer := uint64(0); layer < depth && len(frontier) > 0; layer++ {
		var next []types.CommitId
		for _, id := range frontier {
			for _, adj := range adjacency(id) {
				key := adj.Hex()
				if seen[key] {
					continue
				}
				seen[key] = true
				result = append(result, adj)
				next = append(next, adj)
			}
		}
		frontier = next
	}
	return e.sortDesc(result)
}

func (e *Evaluator) evalRange(ctx context.Context, n ast.Range) ([]types.CommitId, error) {
	rootsIds, err := e.evalSet(ctx, n.Roots)
	if err != nil {
		return nil, err
	}
	headsIds, err := e.evalSet(ctx, n.Heads)
	if err != nil {
		return nil, err
	}
	ancHeads, err := e.ancestorsOf(headsIds, ast.NoGenerationLimit)
	if err != nil {
		return nil, err
	}
	ancRoots, err := e.ancestorsOf(rootsIds, ast.NoGenerationLimit)
	if err != nil {
		return nil, err
	}
	result := subtractIds(ancHeads, ancRoots)
	if n.Generation == ast.AllGenerations {
		return result, nil
	}
	dist := e.distanceFrom(headsIds, result)
	var filtered []types.CommitId
	for _, id := range result {
		d, ok := dist[id.Hex()]
		if !ok {
			continue
		}
		if d >= n.Generation.Start && d < n.Generation.End {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

// distanceFrom computes each domain member's shortest BFS distance (in
// parent-edge hops) from any of heads, restricted to domain.
func (e *Evaluator) distanceFrom(heads []types.CommitId, domain []types.CommitId) map[string]uint64 {
	allowed := map[string]bool{}
	for _, id := range domain {
		allowed[id.Hex()] = true
	}
	dist := map[string]uint64{}
	var frontier []types.CommitId
	for _, h := range heads {
		key := h.Hex()
		if allowed[key] {
			dist[key] = 0
			frontier = append(frontier, h)
		}
	}
	for d := uint64(1); len(frontier) > 0; d++ {
		var next []types.CommitId
		for _, id := range frontier {
			for _, p := range e.Index.Parents(id) {
				key := p.Hex()
				if !allowed[key] {
					continue
				}
				if _, ok := dist[key]; ok {
					continue
				}
				dist[key] = d
				next = append(next, p)
			}
		}
		frontier = next
	}
	return dist
}

func (e *Evaluator) evalReachable(ctx context.Context, n ast.Reachable) ([]types.CommitId, error) {
	sources, err := e.evalSet(ctx, n.Sources)
	if err != nil {
		return nil, err
	}
	domain, err := e.evalSet(ctx, n.Domain)
	if err != nil {
		return nil, err
	}
	allowed := map[string]bool{}
	for _, id := range domain {
		allowed[id.Hex()] = true
	}
	seen := map[string]bool{}
	var result []types.CommitId
	var frontier []types.CommitId
	for _, id := range sources {
		key := id.Hex()
		if !allowed[key] || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, id)
		frontier = append(frontier, id)
	}
	for len(frontier) > 0 {
		var next []types.CommitId
		for _, id := range frontier {
			neighbors := append(append([]types.CommitId{}, e.Index.Parents(id)...), e.Index.Children(id)...)
			for _, nb := range neighbors {
				key := nb.Hex()
				if !allowed[key] || seen[key] {
					continue
				}
				seen[key] = true
				result = append(result, nb)
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return e.sortDesc(result), nil
}

func (e *Evaluator) evalForkPoint(ctx context.Context, n ast.ForkPoint) ([]types.CommitId, error) {
	set, err := e.evalSet(ctx, n.Set)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, nil
	}
	if len(set) == 1 {
		return set, nil
	}
	first, err := e.Index.CommonAncestors(set[0], set[1])
	if err != nil {
		return nil, err
	}
	commonAncestors := map[string]types.CommitId{}
	for _, id := range first {
		commonAncestors[id.Hex()] = id
	}
	for _, other := range set[2:] {
		next := map[string]types.CommitId{}
		for _, id := range first {
			ga, err := e.Index.CommonAncestors(id, other)
			if err != nil {
				return nil, err
			}
			for _, g := range ga {
				next[g.Hex()] = g
			}
		}
		commonAncestors = next
		first = first[:0]
		for _, g := range commonAncestors {
			first = append(first, g)
		}
	}
	var ids []types.CommitId
	for _, id := range commonAncestors {
		ids = append(ids, id)
	}
	return e.Index.HeadsOf(ids), nil
}

func (e *Evaluator) evalLatest(ctx context.Context, n ast.Latest) ([]types.CommitId, error) {
	set, err := e.evalSet(ctx, n.Set)
	if err != nil {
		return nil, err
	}
	type scored struct {
		id       types.CommitId
		ts       types.MillisSinceEpoch
		position uint64
	}
	scoredList := make([]scored, 0, len(set))
	for _, id := range set {
		c, err := e.readCommit(ctx, id)
		if err != nil {
			return nil, err
		}
		pos, _ := e.Index.PositionOf(id)
		scoredList = append(scoredList, scored{id, c.Committer.Timestamp.Millis, pos})
	}
	sort.SliceStable(scoredList, func(i, j int) bool {
		if scoredList[i].ts != scoredList[j].ts {
			return scoredList[i].ts > scoredList[j].ts
		}
		return scoredList[i].position > scoredList[j].position
	})
	count := n.Count
	if uint64(len(scoredList)) < count {
		count = uint64(len(scoredList))
	}
	out := make([]types.CommitId, 0, count)
	for i := uint64(0); i < count; i++ {
		out = append(out, scoredList[i].id)
	}
	return e.sortDesc(out), nil
}

// evalFilterScope evaluates a standalone Filter node: bounded by
// ::visible_heads() (every commit reachable from the visible heads) per §9
// Open Question (a)'s documented resolution.
func (e *Evaluator) evalFilterScope(ctx context.Context, pred ast.Predicate) ([]types.CommitId, error) {
	scope, err := e.ancestorsOf(e.VisibleHeads, ast.NoGenerationLimit)
	if err != nil {
		return nil, err
	}
	return e.filterIds(ctx, scope, pred)
}

func (e *Evaluator) filterIds(ctx context.Context, ids []types.CommitId, pred ast.Predicate) ([]types.CommitId, error) {
	deps := filter.Deps{Backend: e.Backend, Diff: e.Diff}
	var out []types.CommitId
	for _, id := range ids {
		c, err := e.readCommit(ctx, id)
		if err != nil {
			return nil, err
		}
		ok, err := filter.Evaluate(ctx, deps, pred, c)
		if err != nil {
			return nil, rerrors.Wrap(err, "filter predicate")
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// evalIntersection pushes a Filter operand down into the other side's
// iteration rather than materializing Filter's own bounded scope, the
// short-circuiting composition described in §4.3.
func (e *Evaluator) evalIntersection(ctx context.Context, n ast.Intersection) ([]types.CommitId, error) {
	if f, ok := n.A.(ast.Filter); ok {
		ids, err := e.evalSet(ctx, n.B)
		if err != nil {
			return nil, err
		}
		return e.filterIds(ctx, ids, f.Predicate)
	}
	if f, ok := n.B.(ast.Filter); ok {
		ids, err := e.evalSet(ctx, n.A)
		if err != nil {
			return nil, err
		}
		return e.filterIds(ctx, ids, f.Predicate)
	}
	a, err := e.evalSet(ctx, n.A)
	if err != nil {
		return nil, err
	}
	b, err := e.evalSet(ctx, n.B)
	if err != nil {
		return nil, err
	}
	return intersectIds(a, b), nil
}

func (e *Evaluator) evalDifference(ctx context.Context, n ast.Difference) ([]types.CommitId, error) {
	a, err := e.evalSet(ctx, n.A)
	if err != nil {
		return nil, err
	}
	if f, ok := n.B.(ast.Filter); ok {
		return e.filterIds(ctx, a, ast.PredNot{Inner: f.Predicate})
	}
	b, err := e.evalSet(ctx, n.B)
	if err != nil {
		return nil, err
	}
	return subtractIds(a, b), nil
}

// evalCoalesce validates every branch's symbols up front (so a resolution
// error in an un-chosen branch still surfaces, §9 Open Question (c)), then
// evaluates branches in order until one is non-empty.
func (e *Evaluator) evalCoalesce(ctx context.Context, n ast.Coalesce) ([]types.CommitId, error) {
	for _, child := range n.Children {
		if err := e.validateSymbols(ctx, child); err != nil {
			return nil, err
		}
	}
	for _, child := range n.Children {
		ids, err := e.evalSet(ctx, child)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			return ids, nil
		}
	}
	return nil, nil
}

// validateSymbols walks expr resolving every CommitRef/AtOperation without
// performing graph algebra, so coalesce can surface a sibling branch's
// symbol error without evaluating it.
func (e *Evaluator) validateSymbols(ctx context.Context, expr ast.Expr) error {
	switch n := expr.(type) {
	case ast.CommitRef:
		_, err := e.Resolver.ResolveRef(n)
		return err
	case ast.Ancestors:
		return e.validateSymbols(ctx, n.Heads)
	case ast.Descendants:
		return e.validateSymbols(ctx, n.Roots)
	case ast.Range:
		if err := e.validateSymbols(ctx, n.Roots); err != nil {
			return err
		}
		return e.validateSymbols(ctx, n.Heads)
	case ast.DagRange:
		if err := e.validateSymbols(ctx, n.Roots); err != nil {
			return err
		}
		return e.validateSymbols(ctx, n.Heads)
	case ast.Reachable:
		if err := e.validateSymbols(ctx, n.Sources); err != nil {
			return err
		}
		return e.validateSymbols(ctx, n.Domain)
	case ast.Heads:
		return e.validateSymbols(ctx, n.Set)
	case ast.Roots:
		return e.validateSymbols(ctx, n.Set)
	case ast.ForkPoint:
		return e.validateSymbols(ctx, n.Set)
	case ast.Latest:
		return e.validateSymbols(ctx, n.Set)
	case ast.AsFilter:
		return e.validateSymbols(ctx, n.Set)
	case ast.Present:
		err := e.validateSymbols(ctx, n.Inner)
		if err != nil && rerrors.Recoverable(err) {
			return nil
		}
		return err
	case ast.AtOperation:
		sub, err := e.childForOperation(n.Op)
		if err != nil {
			return err
		}
		return sub.validateSymbols(ctx, n.Inner)
	case ast.Union:
		if err := e.validateSymbols(ctx, n.A); err != nil {
			return err
		}
		return e.validateSymbols(ctx, n.B)
	case ast.Intersection:
		if err := e.validateSymbols(ctx, n.A); err != nil {
			return err
		}
		return e.validateSymbols(ctx, n.B)
	case ast.Difference:
		if err := e.validateSymbols(ctx, n.A); err != nil {
			return err
		}
		return e.validateSymbols(ctx, n.B)
	case ast.Coalesce:
		for _, c := range n.Children {
			if err := e.validateSymbols(ctx, c); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func (e *Evaluator) evalAtOperation(ctx context.Context, n ast.AtOperation) ([]types.CommitId, error) {
	sub, err := e.childForOperation(n.Op)
	if err != nil {
		return nil, err
	}
	return sub.evalSet(ctx, n.Inner)
}

func (e *Evaluator) childForOperation(op string) (*Evaluator, error) {
	if e.OpStore == nil {
		return nil, rerrors.NewNoSuchOperation(op)
	}
	opId, err := e.OpStore.ResolveOp(op)
	if err != nil {
		return nil, err
	}
	view, err := e.OpStore.ViewAt(opId)
	if err != nil {
		return nil, err
	}
	heads := unionViewTargets(view)
	subResolver := resolve.New(view, e.Index, e.Workspace, nil)
	return &Evaluator{
		Backend: e.Backend, Index: e.Index, Diff: e.Diff, OpStore: e.OpStore,
		Resolver: subResolver, VisibleHeads: heads, Workspace: e.Workspace,
		Limiter: e.Limiter,
	}, nil
}

func unionViewTargets(view *types.ViewSnapshot) []types.CommitId {
	var ids []types.CommitId
	for _, t := range view.LocalBookmarks {
		ids = append(ids, t.AddedIds()...)
	}
	for _, t := range view.Tags {
		ids = append(ids, t.AddedIds()...)
	}
	for _, t := range view.GitRefs {
		ids = append(ids, t.AddedIds()...)
	}
	for _, rr := range view.RemoteBookmarks {
		ids = append(ids, rr.Target.AddedIds()...)
	}
	if view.GitHead.IsPresent() {
		ids = append(ids, view.GitHead.AddedIds()...)
	}
	for _, id := range view.WorkingCopies {
		ids = append(ids, id)
	}
	return dedupe(ids)
}

func dedupe(ids []types.CommitId) []types.CommitId {
	seen := map[string]bool{}
	var out []types.CommitId
	for _, id := range ids {
		key := id.Hex()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, id)
	}
	return out
}

func intersectIds(a, b []types.CommitId) []types.CommitId {
	bSet := map[string]bool{}
	for _, id := range b {
		bSet[id.Hex()] = true
	}
	var out []types.CommitId
	for _, id := range a {
		if bSet[id.Hex()] {
			out = append(out, id)
		}
	}
	return out
}

func subtractIds(a, b []types.CommitId) []types.CommitId {
	bSet := map[string]bool{}
	for _, id := range b {
		bSet[id.Hex()] = true
	}
	var out []types.CommitId
	for _, id := range a {
		if !bSet[id.Hex()] {
			out = append(out, id)
		}
	}
	return out
}
