package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/revset/internal/revset/ast"
	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/resolve"
	"github.com/teranos/revset/internal/revset/types"
)

// fixture builds the linear-DAG-with-a-fork graph used across §8's literal
// scenarios: root -> A -> B -> C, with a second child D of A (A forks into
// B and D), so heads() = {C, D} and fork_point(C|D) = A.
type fixture struct {
	root, a, b, c, d types.CommitId
	mem              *backend.Memory
	view             *types.ViewSnapshot
}

func id(b byte) types.CommitId { return types.CommitId{b} }

func commit(cid types.CommitId, parents []types.CommitId, millis int64) *types.Commit {
	return &types.Commit{
		Id:       cid,
		ChangeId: types.ChangeId{cid[0]},
		Parents:  parents,
		Author:   types.Signature{Name: "a", Email: "a@example.com", Timestamp: types.Timestamp{Millis: types.MillisSinceEpoch(millis)}},
		Committer: types.Signature{Name: "a", Email: "a@example.com", Timestamp: types.Timestamp{Millis: types.MillisSinceEpoch(millis)}},
		Description: "change",
	}
}

func newFixture() *fixture {
	f := &fixture{
		root: id(0x00), a: id(0xaa), b: id(0xbb), c: id(0xcc), d: id(0xdd),
	}
	f.mem = backend.NewMemory()
	f.mem.SetRoot(f.root)
	f.mem.AddCommit(commit(f.root, nil, 0))
	f.mem.AddCommit(commit(f.a, []types.CommitId{f.root}, 1))
	f.mem.AddCommit(commit(f.b, []types.CommitId{f.a}, 2))
	f.mem.AddCommit(commit(f.c, []types.CommitId{f.b}, 3))
	f.mem.AddCommit(commit(f.d, []types.CommitId{f.a}, 4))

	f.view = types.NewViewSnapshot()
	f.view.LocalBookmarks["main"] = types.NormalRefTarget(f.c)
	f.view.LocalBookmarks["feature"] = types.NormalRefTarget(f.d)
	f.view.WorkingCopies["default"] = f.c
	return f
}

func (f *fixture) evaluator() *Evaluator {
	r := resolve.New(f.view, f.mem, "default", nil)
	heads, _ := f.mem.AllHeads(context.Background())
	return New(f.mem, f.mem, f.mem, nil, r, heads, "default", nil)
}

func ids(cs ...types.CommitId) []types.CommitId { return cs }

func TestEvaluator_HeadsAndRoots(t *testing.T) {
	ev := f(t)
	rs, err := ev.Evaluate(context.Background(), ast.Heads{Set: ast.All{}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cc", "dd"}, hexes(rs.Ids()))

	rs, err = ev.Evaluate(context.Background(), ast.Roots{Set: ast.All{}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"00"}, hexes(rs.Ids()))
}

func TestEvaluator_ForkPoint(t *testing.T) {
	fx := newFixture()
	ev := fx.evaluator()
	rs, err := ev.Evaluate(context.Background(), ast.ForkPoint{Set: ast.Commits{Ids: ids(fx.c, fx.d)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa"}, hexes(rs.Ids()))
}

// crissCrossFixture builds a criss-cross history where the pairwise GCA
// of the first two heads is itself a two-element set ({p, q}), so folding
// fork_point across all four heads only reaches the true fork point
// (root) if every middle head's constraint actually narrows the running
// set — exercising §8's criss-cross scenario beyond the two-head case.
type crissCrossFixture struct {
	root, p, q, m1, m2, h0, h1, h2, h3 types.CommitId
	mem                                *backend.Memory
}

func newCrissCrossFixture() *crissCrossFixture {
	f := &crissCrossFixture{
		root: id(0x01), p: id(0x02), q: id(0x03),
		m1: id(0x04), m2: id(0x05),
		h0: id(0x06), h1: id(0x07), h2: id(0x08), h3: id(0x09),
	}
	f.mem = backend.NewMemory()
	f.mem.SetRoot(f.root)
	f.mem.AddCommit(commit(f.root, nil, 0))
	f.mem.AddCommit(commit(f.p, []types.CommitId{f.root}, 1))
	f.mem.AddCommit(commit(f.q, []types.CommitId{f.root}, 1))
	f.mem.AddCommit(commit(f.m1, []types.CommitId{f.p, f.q}, 2))
	f.mem.AddCommit(commit(f.m2, []types.CommitId{f.p, f.q}, 2))
	// h2/h3 are added before h0/h1 so h1, h0 hold the highest positions
	// and are the pair the position-ordered fold starts from.
	f.mem.AddCommit(commit(f.h2, []types.CommitId{f.p}, 3))
	f.mem.AddCommit(commit(f.h3, []types.CommitId{f.q}, 3))
	f.mem.AddCommit(commit(f.h0, []types.CommitId{f.m1}, 3))
	f.mem.AddCommit(commit(f.h1, []types.CommitId{f.m2}, 3))
	return f
}

func (f *crissCrossFixture) evaluator() *Evaluator {
	view := types.NewViewSnapshot()
	view.WorkingCopies["default"] = f.h0
	r := resolve.New(view, f.mem, "default", nil)
	heads, _ := f.mem.AllHeads(context.Background())
	return New(f.mem, f.mem, f.mem, nil, r, heads, "default", nil)
}

func TestEvaluator_ForkPointFoldsAcrossMoreThanTwoHeads(t *testing.T) {
	fx := newCrissCrossFixture()
	ev := fx.evaluator()

	// Pairwise, fork_point(h0, h1) is the two-element criss-cross GCA set.
	rs, err := ev.Evaluate(context.Background(), ast.ForkPoint{Set: ast.Commits{Ids: ids(fx.h0, fx.h1)}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{fx.p.Hex(), fx.q.Hex()}, hexes(rs.Ids()))

	// Folding in h2 (descendant of p only) and h3 (descendant of q only)
	// must narrow the running intersection at every step, not just
	// against the last element: the only ancestor common to all four
	// heads is root.
	rs, err = ev.Evaluate(context.Background(), ast.ForkPoint{Set: ast.Commits{Ids: ids(fx.h0, fx.h1, fx.h2, fx.h3)}})
	require.NoError(t, err)
	assert.Equal(t, []string{fx.root.Hex()}, hexes(rs.Ids()))
}

func TestEvaluator_RangeExcludesRoots(t *testing.T) {
	fx := newFixture()
	ev := fx.evaluator()
	rs, err := ev.Evaluate(context.Background(), ast.Range{
		Roots: ast.Commits{Ids: ids(fx.a)}, Heads: ast.Commits{Ids: ids(fx.c)}, Generation: ast.AllGenerations,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bb", "cc"}, hexes(rs.Ids()))
}

func TestEvaluator_DagRange(t *testing.T) {
	fx := newFixture()
	ev := fx.evaluator()
	rs, err := ev.Evaluate(context.Background(), ast.DagRange{
		Roots: ast.Commits{Ids: ids(fx.a)}, Heads: ast.Commits{Ids: ids(fx.c)},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aa", "bb", "cc"}, hexes(rs.Ids()))
}

func TestEvaluator_CoalesceValidatesAllBranches(t *testing.T) {
	fx := newFixture()
	ev := fx.evaluator()
	_, err := ev.Evaluate(context.Background(), ast.Coalesce{Children: []ast.Expr{
		ast.All{},
		ast.CommitRef{Kind: ast.RefSymbol, Symbol: "no-such-bookmark"},
	}})
	require.Error(t, err, "coalesce must validate every branch's symbols even when an earlier branch is non-empty")
}

func TestEvaluator_CoalescePicksFirstNonEmpty(t *testing.T) {
	fx := newFixture()
	ev := fx.evaluator()
	rs, err := ev.Evaluate(context.Background(), ast.Coalesce{Children: []ast.Expr{
		ast.None{},
		ast.Commits{Ids: ids(fx.a)},
		ast.All{},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa"}, hexes(rs.Ids()))
}

func TestEvaluator_PresentRecoversNoSuchRevision(t *testing.T) {
	fx := newFixture()
	ev := fx.evaluator()
	rs, err := ev.Evaluate(context.Background(), ast.Present{Inner: ast.CommitRef{Kind: ast.RefSymbol, Symbol: "nope"}})
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestEvaluator_MergesEmptyOnLinearFixture(t *testing.T) {
	fx := newFixture()
	ev := fx.evaluator()
	rs, err := ev.Evaluate(context.Background(), ast.Merges{})
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestEvaluator_LatestBreaksTimestampTiesByPosition(t *testing.T) {
	mem := backend.NewMemory()
	root := id(0x10)
	older := id(0x11)
	sameTsEarlierPos := id(0x12)
	sameTsLaterPos := id(0x13)
	mem.SetRoot(root)
	mem.AddCommit(commit(root, nil, 0))
	mem.AddCommit(commit(older, []types.CommitId{root}, 50))
	mem.AddCommit(commit(sameTsEarlierPos, []types.CommitId{root}, 100))
	mem.AddCommit(commit(sameTsLaterPos, []types.CommitId{root}, 100))

	view := types.NewViewSnapshot()
	view.WorkingCopies["default"] = sameTsLaterPos
	r := resolve.New(view, mem, "default", nil)
	heads, _ := mem.AllHeads(context.Background())
	ev := New(mem, mem, mem, nil, r, heads, "default", nil)

	rs, err := ev.Evaluate(context.Background(), ast.Latest{
		Set:   ast.Commits{Ids: ids(older, sameTsEarlierPos, sameTsLaterPos)},
		Count: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{sameTsLaterPos.Hex()}, hexes(rs.Ids()),
		"latest() must break a timestamp tie in favor of the higher (later-added) position")
}

func TestEvaluator_OrderingIsStrictlyDecreasingPosition(t *testing.T) {
	fx := newFixture()
	ev := fx.evaluator()
	rs, err := ev.Evaluate(context.Background(), ast.All{})
	require.NoError(t, err)
	positions := make([]uint64, 0, rs.Len())
	for _, i := range rs.Ids() {
		p, ok := fx.mem.PositionOf(i)
		require.True(t, ok)
		positions = append(positions, p)
	}
	for i := 1; i < len(positions); i++ {
		assert.Greater(t, positions[i-1], positions[i], "ordering must be strictly decreasing")
	}
}

func hexes(cs []types.CommitId) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Hex()
	}
	return out
}

func f(t *testing.T) *Evaluator {
	t.Helper()
	return newFixture().evaluator()
}
