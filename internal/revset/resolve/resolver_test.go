package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/revset/internal/revset/ast"
	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/match"
	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

func sig(name string) types.Signature {
	return types.Signature{Name: name, Email: name + "@example.com"}
}

func buildFixture(t *testing.T) (*Resolver, types.CommitId, types.CommitId) {
	t.Helper()
	mem := backend.NewMemory()

	root := types.CommitId([]byte{0xaa, 0x00, 0x00, 0x00})
	tip := types.CommitId([]byte{0xaa, 0x11, 0x00, 0x00})
	mem.SetRoot(root)
	mem.AddCommit(&types.Commit{Id: root, Author: sig("root"), Committer: sig("root"), Description: "root"})
	mem.AddCommit(&types.Commit{Id: tip, Parents: []types.CommitId{root}, Author: sig("tip"), Committer: sig("tip"), Description: "tip"})

	view := types.NewViewSnapshot()
	view.LocalBookmarks["main"] = types.NormalRefTarget(tip)
	view.LocalBookmarks["conflicted"] = types.ConflictedRefTarget(
		[]types.CommitId{root, tip}, []types.CommitId{root},
	)
	view.Tags["v1.0.0"] = types.NormalRefTarget(root)
	view.GitRefs["refs/heads/main"] = types.NormalRefTarget(tip)
	view.GitHead = types.NormalRefTarget(tip)
	view.WorkingCopies["default"] = tip
	view.RemoteBookmarks[types.RemoteBookmarkKey{Name: "main", Remote: "origin"}] = types.RemoteRef{
		Target: types.NormalRefTarget(root),
		State:  types.RemoteRefTracked,
	}
	view.RemoteBookmarks[types.RemoteBookmarkKey{Name: "main", Remote: types.GitTrackingRemote}] = types.RemoteRef{
		Target: types.NormalRefTarget(tip),
		State:  types.RemoteRefTracked,
	}

	r := New(view, mem, "default", nil)
	return r, root, tip
}

func TestResolveSymbol_BareAt(t *testing.T) {
	r, _, tip := buildFixture(t)
	ids, err := r.ResolveSymbol("@")
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{tip}, ids)
}

func TestResolveSymbol_BareAtMissingWorkspaceErrors(t *testing.T) {
	r, _, _ := buildFixture(t)
	r.Workspace = "other"
	_, err := r.ResolveSymbol("@")
	assert.ErrorIs(t, err, rerrors.ErrWorkspaceMissingWorkingCopy)
}

func TestResolveSymbol_RemoteBookmark(t *testing.T) {
	r, root, _ := buildFixture(t)
	ids, err := r.ResolveSymbol("main@origin")
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{root}, ids)
}

func TestResolveSymbol_RemoteBookmarkUnknownErrors(t *testing.T) {
	r, _, _ := buildFixture(t)
	_, err := r.ResolveSymbol("main@nowhere")
	assert.ErrorIs(t, err, rerrors.ErrNoSuchRevision)
}

func TestResolveSymbol_TagBeforeBookmark(t *testing.T) {
	r, root, tip := buildFixture(t)
	r.View.LocalBookmarks["v1.0.0"] = types.NormalRefTarget(tip)
	ids, err := r.ResolveSymbol("v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{root}, ids)
}

func TestResolveSymbol_LocalBookmark(t *testing.T) {
	r, _, tip := buildFixture(t)
	ids, err := r.ResolveSymbol("main")
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{tip}, ids)
}

func TestResolveSymbol_ConflictedBookmarkReturnsAllAdds(t *testing.T) {
	r, root, tip := buildFixture(t)
	ids, err := r.ResolveSymbol("conflicted")
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.CommitId{root, tip}, ids)
}

func TestResolveSymbol_GitRefFallback(t *testing.T) {
	r, _, tip := buildFixture(t)
	ids, err := r.ResolveSymbol("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{tip}, ids)
}

func TestResolveSymbol_CommitIdPrefix(t *testing.T) {
	r, root, _ := buildFixture(t)
	ids, err := r.ResolveSymbol(root.Hex()[:4])
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{root}, ids)
}

func TestResolveSymbol_CommitIdPrefixAmbiguousErrors(t *testing.T) {
	r, _, _ := buildFixture(t)
	_, err := r.ResolveSymbol("aa")
	assert.ErrorIs(t, err, rerrors.ErrAmbiguousCommitIdPrefix)
}

func TestResolveSymbol_NoSuchRevisionIncludesSuggestions(t *testing.T) {
	r, _, _ := buildFixture(t)
	_, err := r.ResolveSymbol("mainn")
	require.Error(t, err)
	var nsr *rerrors.NoSuchRevisionError
	require.ErrorAs(t, err, &nsr)
	assert.Contains(t, nsr.Candidates, "main")
}

func TestResolveSymbol_EmptyStringErrors(t *testing.T) {
	r, _, _ := buildFixture(t)
	_, err := r.ResolveSymbol("")
	assert.ErrorIs(t, err, rerrors.ErrEmptyString)
}

func TestResolveRef_WorkingCopy(t *testing.T) {
	r, _, tip := buildFixture(t)
	ids, err := r.ResolveRef(ast.CommitRef{Kind: ast.RefWorkingCopy})
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{tip}, ids)
}

func TestResolveRef_LocalBookmarksByGlob(t *testing.T) {
	r, root, tip := buildFixture(t)
	pat, err := match.Compile("glob", "ma*")
	require.NoError(t, err)
	ids, err := r.ResolveRef(ast.CommitRef{Kind: ast.RefLocalBookmarks, NamePattern: pat})
	require.NoError(t, err)
	assert.NotContains(t, ids, root)
	assert.Contains(t, ids, tip)
}

func TestResolveRef_RemoteBookmarksExcludesGitTrackingRemote(t *testing.T) {
	r, root, _ := buildFixture(t)
	ids, err := r.ResolveRef(ast.CommitRef{
		Kind:        ast.RefRemoteBookmarks,
		NamePattern: match.CompileDefault("main"),
	})
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{root}, ids)
}

func TestResolveRef_RemoteBookmarksFilteredByTracked(t *testing.T) {
	r, root, _ := buildFixture(t)
	tracked := true
	ids, err := r.ResolveRef(ast.CommitRef{
		Kind:        ast.RefRemoteBookmarks,
		NamePattern: match.CompileDefault("main"),
		Tracked:     &tracked,
	})
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{root}, ids)
}

func TestResolveRef_GitHead(t *testing.T) {
	r, _, tip := buildFixture(t)
	ids, err := r.ResolveRef(ast.CommitRef{Kind: ast.RefGitHead})
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{tip}, ids)
}

func TestResolveRef_GitHeadAbsentReturnsEmpty(t *testing.T) {
	r, _, _ := buildFixture(t)
	r.View.GitHead = types.AbsentRefTarget()
	ids, err := r.ResolveRef(ast.CommitRef{Kind: ast.RefGitHead})
	require.NoError(t, err)
	assert.Nil(t, ids)
}

type stubExtension struct {
	symbol string
	ids    []types.CommitId
}

func (s stubExtension) Resolve(symbol string) ([]types.CommitId, bool, error) {
	if symbol != s.symbol {
		return nil, false, nil
	}
	return s.ids, true, nil
}

func TestResolveSymbol_ExtensionTakesPrecedence(t *testing.T) {
	r, root, _ := buildFixture(t)
	r.Extensions = []Extension{stubExtension{symbol: "main", ids: []types.CommitId{root}}}
	ids, err := r.ResolveSymbol("main")
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{root}, ids)
}

func TestResolveSymbol_DomainRestrictsPrefixLookup(t *testing.T) {
	r, root, tip := buildFixture(t)
	r.Domain = map[string]bool{root.Hex(): true}
	ids, err := r.ResolveSymbol(root.Hex()[:4])
	require.NoError(t, err)
	assert.Equal(t, []types.CommitId{root}, ids)

	_, err = r.ResolveSymbol(tip.Hex()[:4])
	assert.ErrorIs(t, err, rerrors.ErrNoSuchRevision)
}
