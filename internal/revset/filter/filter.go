// Package filter evaluates ast.Predicate values against one commit at a
// time (§4.4). It is the only package that touches the Diff capability,
// kept separate from eval so the graph-algebra evaluator stays free of
// tree-diffing concerns.
package filter

import (
	"context"

	"github.com/teranos/revset/internal/revset/ast"
	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/match"
	"github.com/teranos/revset/internal/revset/types"
)

// Deps bundles the capabilities predicate evaluation needs beyond the
// commit metadata already in hand.
type Deps struct {
	Backend backend.Backend
	Diff    backend.Diff
}

// Evaluate tests pred against commit, reading trees/diffs through deps only
// when the predicate actually needs them (files/diff_contains/conflicts).
func Evaluate(ctx context.Context, deps Deps, pred ast.Predicate, commit *types.Commit) (bool, error) {
	switch p := pred.(type) {
	case ast.PredAuthor:
		return p.Pattern.Matches(commit.Author.NameEmail()), nil
	case ast.PredAuthorName:
		return p.Pattern.Matches(commit.Author.Name), nil
	case ast.PredAuthorEmail:
		return p.Pattern.Matches(commit.Author.Email), nil
	case ast.PredCommitter:
		return p.Pattern.Matches(commit.Committer.NameEmail()), nil
	case ast.PredCommitterName:
		return p.Pattern.Matches(commit.Committer.Name), nil
	case ast.PredCommitterEmail:
		return p.Pattern.Matches(commit.Committer.Email), nil
	case ast.PredDescription:
		return p.Pattern.Matches(commit.Description), nil
	case ast.PredSubject:
		return p.Pattern.Matches(commit.Subject()), nil
	case ast.PredAuthorDate:
		return p.Date.Matches(commit.Author.Timestamp), nil
	case ast.PredCommitterDate:
		return p.Date.Matches(commit.Committer.Timestamp), nil
	case ast.PredMine:
		// `mine` is author_email(exact-i: <user email>) per §4.4.
		m, err := match.Compile("exact-i", p.UserEmail)
		if err != nil {
			return false, err
		}
		return m.Matches(commit.Author.Email), nil
	case ast.PredSigned:
		return commit.Signature.Present, nil
	case ast.PredConflicts:
		status, err := deps.Backend.ConflictStatus(ctx, commit.RootTree)
		if err != nil {
			return false, err
		}
		return status.HasConflicts, nil
	case ast.PredFiles:
		return matchFiles(ctx, deps, commit, p.Patterns)
	case ast.PredDiffContains:
		return matchDiffContains(ctx, deps, commit, p)
	case ast.PredNot:
		ok, err := Evaluate(ctx, deps, p.Inner, commit)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case ast.PredAnd:
		ok, err := Evaluate(ctx, deps, p.A, commit)
		if err != nil || !ok {
			return false, err
		}
		return Evaluate(ctx, deps, p.B, commit)
	case ast.PredOr:
		ok, err := Evaluate(ctx, deps, p.A, commit)
		if err != nil || ok {
			return ok, err
		}
		return Evaluate(ctx, deps, p.B, commit)
	default:
		return false, nil
	}
}

// parentTree returns the tree to diff commit's root tree against, per
// §4.4: the single parent's tree, the auto-merged parent tree for a merge,
// or the empty tree for a root commit.
func parentTree(ctx context.Context, deps Deps, commit *types.Commit) (types.TreeId, error) {
	if len(commit.Parents) == 0 {
		return deps.Backend.EmptyTreeId(), nil
	}
	parentTrees := make([]types.TreeId, 0, len(commit.Parents))
	for _, pid := range commit.Parents {
		pc, err := deps.Backend.ReadCommit(ctx, pid)
		if err != nil {
			return nil, err
		}
		parentTrees = append(parentTrees, pc.RootTree)
	}
	return deps.Diff.AutoMergedParentTree(ctx, parentTrees)
}

func matchFiles(ctx context.Context, deps Deps, commit *types.Commit, patterns []match.StringMatcher) (bool, error) {
	base, err := parentTree(ctx, deps, commit)
	if err != nil {
		return false, err
	}
	diffs, err := deps.Diff.TreeDiff(ctx, base, commit.RootTree)
	if err != nil {
		return false, err
	}
	for _, d := range diffs {
		for _, pat := range patterns {
			if pat.Matches(d.Path) {
				return true, nil
			}
		}
	}
	return false, nil
}

func matchDiffContains(ctx context.Context, deps Deps, commit *types.Commit, p ast.PredDiffContains) (bool, error) {
	base, err := parentTree(ctx, deps, commit)
	if err != nil {
		return false, err
	}
	diffs, err := deps.Diff.TreeDiff(ctx, base, commit.RootTree)
	if err != nil {
		return false, err
	}
	for _, d := range diffs {
		if p.HasFile && !p.File.Matches(d.Path) {
			continue
		}
		for _, line := range d.AddedLines {
			if p.Text.Matches(line) {
				return true, nil
			}
		}
		for _, line := range d.RemovedLines {
			if p.Text.Matches(line) {
				return true, nil
			}
		}
	}
	return false, nil
}
