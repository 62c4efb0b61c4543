package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/revset/internal/revset/ast"
	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/match"
	"github.com/teranos/revset/internal/revset/types"
)

func commitFixture() *types.Commit {
	return &types.Commit{
		Id:          types.CommitId([]byte{0x01}),
		Author:      types.Signature{Name: "Ada Lovelace", Email: "ada@example.com"},
		Committer:   types.Signature{Name: "Ada Lovelace", Email: "ada@example.com"},
		Description: "fix the thing\n\nlonger body here",
		Signature:   types.SecureSignature{Present: true},
	}
}

func TestEvaluate_AuthorPredicate(t *testing.T) {
	c := commitFixture()
	ok, err := Evaluate(context.Background(), Deps{}, ast.PredAuthorEmail{Pattern: match.CompileDefault("ada")}, c)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_SubjectIsFirstLine(t *testing.T) {
	c := commitFixture()
	ok, err := Evaluate(context.Background(), Deps{}, ast.PredSubject{Pattern: match.CompileDefault("fix the thing")}, c)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(context.Background(), Deps{}, ast.PredSubject{Pattern: match.CompileDefault("longer body")}, c)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_Mine(t *testing.T) {
	c := commitFixture()
	ok, err := Evaluate(context.Background(), Deps{}, ast.PredMine{UserEmail: "ADA@example.com"}, c)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(context.Background(), Deps{}, ast.PredMine{UserEmail: "someoneelse@example.com"}, c)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_Signed(t *testing.T) {
	c := commitFixture()
	ok, err := Evaluate(context.Background(), Deps{}, ast.PredSigned{}, c)
	require.NoError(t, err)
	assert.True(t, ok)

	c.Signature = types.SecureSignature{}
	ok, err = Evaluate(context.Background(), Deps{}, ast.PredSigned{}, c)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_NotAndOr(t *testing.T) {
	c := commitFixture()
	yes := ast.PredAuthorEmail{Pattern: match.CompileDefault("ada")}
	no := ast.PredAuthorEmail{Pattern: match.CompileDefault("nobody")}

	ok, err := Evaluate(context.Background(), Deps{}, ast.PredNot{Inner: no}, c)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(context.Background(), Deps{}, ast.PredAnd{A: yes, B: no}, c)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Evaluate(context.Background(), Deps{}, ast.PredOr{A: no, B: yes}, c)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_Conflicts(t *testing.T) {
	mem := backend.NewMemory()
	c := commitFixture()
	c.RootTree = types.TreeId([]byte("tree-1"))
	mem.SetConflicted(c.RootTree, true)

	ok, err := Evaluate(context.Background(), Deps{Backend: mem}, ast.PredConflicts{}, c)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_FilesMatchesChangedPath(t *testing.T) {
	mem := backend.NewMemory()
	emptyTree := types.TreeId([]byte("empty"))
	mem.SetEmptyTreeId(emptyTree)
	mem.AddTree(&backend.Tree{Id: emptyTree})

	rootTree := types.TreeId([]byte("tree-with-file"))
	mem.AddTree(&backend.Tree{Id: rootTree, Entries: []backend.TreeEntry{
		{Path: "README.md", FileId: []byte("v1")},
	}})

	c := commitFixture()
	c.RootTree = rootTree

	ok, err := Evaluate(context.Background(), Deps{Backend: mem, Diff: mem}, ast.PredFiles{
		Patterns: []match.StringMatcher{match.CompileDefault("README")},
	}, c)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(context.Background(), Deps{Backend: mem, Diff: mem}, ast.PredFiles{
		Patterns: []match.StringMatcher{match.CompileDefault("main.go")},
	}, c)
	require.NoError(t, err)
	assert.False(t, ok)
}

// lineDiffStub is a minimal backend.Diff whose TreeDiff reports line-level
// content, exercising diff_contains()'s line matching beyond what the
// path-only Memory fixture's TreeDiff produces.
type lineDiffStub struct {
	diffs []backend.PathDiff
}

func (s lineDiffStub) TreeDiff(context.Context, types.TreeId, types.TreeId) ([]backend.PathDiff, error) {
	return s.diffs, nil
}

func (s lineDiffStub) AutoMergedParentTree(_ context.Context, parents []types.TreeId) (types.TreeId, error) {
	return parents[0], nil
}

func TestEvaluate_DiffContainsMatchesAddedLine(t *testing.T) {
	mem := backend.NewMemory()
	c := commitFixture()
	c.RootTree = types.TreeId([]byte("tree"))
	diff := lineDiffStub{diffs: []backend.PathDiff{
		{Path: "a.go", AddedLines: []string{"func newThing() {}"}},
	}}

	ok, err := Evaluate(context.Background(), Deps{Backend: mem, Diff: diff}, ast.PredDiffContains{
		Text: match.CompileDefault("newThing"),
	}, c)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_DiffContainsFiltersByFile(t *testing.T) {
	mem := backend.NewMemory()
	c := commitFixture()
	c.RootTree = types.TreeId([]byte("tree"))
	diff := lineDiffStub{diffs: []backend.PathDiff{
		{Path: "a.go", AddedLines: []string{"needle"}},
		{Path: "b.go", AddedLines: []string{"needle"}},
	}}

	ok, err := Evaluate(context.Background(), Deps{Backend: mem, Diff: diff}, ast.PredDiffContains{
		Text:    match.CompileDefault("needle"),
		File:    match.CompileDefault("a.go"),
		HasFile: true,
	}, c)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(context.Background(), Deps{Backend: mem, Diff: diff}, ast.PredDiffContains{
		Text:    match.CompileDefault("needle"),
		File:    match.CompileDefault("c.go"),
		HasFile: true,
	}, c)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_RootCommitDiffsAgainstEmptyTree(t *testing.T) {
	mem := backend.NewMemory()
	emptyTree := types.TreeId([]byte("empty"))
	mem.SetEmptyTreeId(emptyTree)
	mem.AddTree(&backend.Tree{Id: emptyTree})

	rootTree := types.TreeId([]byte("root-tree"))
	mem.AddTree(&backend.Tree{Id: rootTree, Entries: []backend.TreeEntry{
		{Path: "first.txt", FileId: []byte("v1")},
	}})

	c := commitFixture()
	c.RootTree = rootTree
	c.Parents = nil

	ok, err := Evaluate(context.Background(), Deps{Backend: mem, Diff: mem}, ast.PredFiles{
		Patterns: []match.StringMatcher{match.CompileDefault("first.txt")},
	}, c)
	require.NoError(t, err)
	assert.True(t, ok)
}
