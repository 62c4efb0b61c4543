package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/revset/internal/revset/ast"
	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/opstore"
	"github.com/teranos/revset/internal/revset/resolve"
	"github.com/teranos/revset/internal/revset/types"
)

// TestEvaluator_AtOperationResolvesAgainstHistoricalView exercises §8's
// same-symbol-different-operation scenario end to end: "main" points at
// different commits depending on which recorded operation it's read
// through, combining a real opstore.Store (not a fixture) with the
// evaluator rather than testing operation storage and evaluation in
// isolation.
func TestEvaluator_AtOperationResolvesAgainstHistoricalView(t *testing.T) {
	ctx := context.Background()

	mem := backend.NewMemory()
	older := id(0x21)
	newer := id(0x22)
	mem.SetRoot(older)
	mem.AddCommit(commit(older, nil, 0))
	mem.AddCommit(commit(newer, []types.CommitId{older}, 1))

	store, err := opstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	viewAtOlder := types.NewViewSnapshot()
	viewAtOlder.LocalBookmarks["main"] = types.NormalRefTarget(older)
	viewAtOlder.WorkingCopies["default"] = older
	firstOp, err := store.RecordOp(ctx, viewAtOlder)
	require.NoError(t, err)

	viewAtNewer := types.NewViewSnapshot()
	viewAtNewer.LocalBookmarks["main"] = types.NormalRefTarget(newer)
	viewAtNewer.WorkingCopies["default"] = newer
	_, err = store.RecordOp(ctx, viewAtNewer)
	require.NoError(t, err)

	resolver := resolve.New(viewAtNewer, mem, "default", nil)
	heads, err := mem.AllHeads(ctx)
	require.NoError(t, err)
	ev := New(mem, mem, mem, store, resolver, heads, "default", nil)

	mainRef := ast.CommitRef{Kind: ast.RefSymbol, Symbol: "main"}

	current, err := ev.Evaluate(ctx, mainRef)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.Hex()}, hexes(current.Ids()))

	historical, err := ev.Evaluate(ctx, ast.AtOperation{Op: "@-", Inner: mainRef})
	require.NoError(t, err)
	assert.Equal(t, []string{older.Hex()}, hexes(historical.Ids()))

	byPrefix, err := ev.Evaluate(ctx, ast.AtOperation{Op: string(firstOp)[:8], Inner: mainRef})
	require.NoError(t, err)
	assert.Equal(t, []string{older.Hex()}, hexes(byPrefix.Ids()))
}
