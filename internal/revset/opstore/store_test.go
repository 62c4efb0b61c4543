package opstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleView(bookmark string, id types.CommitId) *types.ViewSnapshot {
	v := types.NewViewSnapshot()
	v.LocalBookmarks[bookmark] = types.NormalRefTarget(id)
	v.WorkingCopies["default"] = id
	return v
}

func TestStore_RecordAndResolveHead(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := types.CommitId{0xab, 0xcd}
	op, err := s.RecordOp(ctx, sampleView("main", id))
	require.NoError(t, err)

	head, err := s.ResolveOp("@")
	require.NoError(t, err)
	assert.Equal(t, op, head)

	empty, err := s.ResolveOp("")
	require.NoError(t, err)
	assert.Equal(t, op, empty)
}

func TestStore_ParentChain(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.RecordOp(ctx, sampleView("main", types.CommitId{0x01}))
	require.NoError(t, err)
	second, err := s.RecordOp(ctx, sampleView("main", types.CommitId{0x02}))
	require.NoError(t, err)

	parents, err := s.ParentOps(second)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, first, parents[0])

	rootParents, err := s.ParentOps(first)
	require.NoError(t, err)
	assert.Empty(t, rootParents)

	prevHead, err := s.ResolveOp("@-")
	require.NoError(t, err)
	assert.Equal(t, first, prevHead)
}

func TestStore_ResolveOpUnknownDashDepth(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.RecordOp(ctx, sampleView("main", types.CommitId{0x01}))
	require.NoError(t, err)

	_, err = s.ResolveOp("@--")
	assert.Error(t, err)
}

func TestStore_ResolveByPrefix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	op, err := s.RecordOp(ctx, sampleView("main", types.CommitId{0x01}))
	require.NoError(t, err)

	resolved, err := s.ResolveOp(string(op)[:8])
	require.NoError(t, err)
	assert.Equal(t, op, resolved)
}

func TestStore_ViewRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := types.CommitId{0x11, 0x22, 0x33}
	view := sampleView("release", id)
	view.Tags["v1.0.0"] = types.ConflictedRefTarget(
		[]types.CommitId{{0xaa}, {0xbb}},
		[]types.CommitId{{0xcc}},
	)
	view.GitHead = types.NormalRefTarget(id)
	view.RemoteBookmarks[types.RemoteBookmarkKey{Name: "release", Remote: "origin"}] = types.RemoteRef{
		Target: types.NormalRefTarget(id),
		State:  types.RemoteRefTracked,
	}

	op, err := s.RecordOp(ctx, view)
	require.NoError(t, err)

	roundTripped, err := s.ViewAt(op)
	require.NoError(t, err)

	assert.True(t, roundTripped.LocalBookmarks["release"].IsPresent())
	assert.True(t, roundTripped.Tags["v1.0.0"].IsConflict())
	assert.Len(t, roundTripped.Tags["v1.0.0"].AddedIds(), 2)
	assert.True(t, roundTripped.GitHead.IsPresent())

	rr, ok := roundTripped.RemoteBookmarks[types.RemoteBookmarkKey{Name: "release", Remote: "origin"}]
	require.True(t, ok)
	assert.True(t, rr.Tracked())
}

func TestStore_ResolveOpNoSuchOperation(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ResolveOp("deadbeef")
	assert.Error(t, err)
}

var _ backend.OperationStore = (*Store)(nil)
