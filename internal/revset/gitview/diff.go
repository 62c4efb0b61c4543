package gitview

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

// --- backend.Diff ---

// TreeDiff enumerates path-level differences via go-git's merkle-trie tree
// diff (object.DiffTree), the same diffing machinery the teacher's
// ingestion pipeline relies on indirectly through commit.Stats(). Unlike
// commit.Stats() this also reports which lines changed, needed for
// diff_contains() (§4.4).
func (r *Repository) TreeDiff(_ context.Context, from, to types.TreeId) ([]backend.PathDiff, error) {
	fromTree, err := r.treeOrNil(from)
	if err != nil {
		return nil, err
	}
	toTree, err := r.treeOrNil(to)
	if err != nil {
		return nil, err
	}
	if fromTree == nil && toTree == nil {
		return nil, nil
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, rerrors.Wrap(err, "tree diff")
	}

	var diffs []backend.PathDiff
	for _, c := range changes {
		path := c.To.Name
		if path == "" {
			path = c.From.Name
		}
		patch, err := c.Patch()
		if err != nil {
			diffs = append(diffs, backend.PathDiff{Path: path})
			continue
		}
		added, removed := collectLines(patch)
		diffs = append(diffs, backend.PathDiff{Path: path, AddedLines: added, RemovedLines: removed})
	}
	return diffs, nil
}

func collectLines(patch *object.Patch) (added, removed []string) {
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			continue
		}
		for _, chunk := range fp.Chunks() {
			lines := splitNonEmpty(chunk.Content())
			switch chunk.Type() {
			case object.Add:
				added = append(added, lines...)
			case object.Delete:
				removed = append(removed, lines...)
			}
		}
	}
	return
}

func splitNonEmpty(content string) []string {
	var out []string
	for _, l := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func (r *Repository) treeOrNil(id types.TreeId) (*object.Tree, error) {
	hash := plumbing.NewHash(id.Hex())
	if hash == emptyTreeHash || len(id) == 0 {
		return nil, nil
	}
	t, err := r.repo.TreeObject(hash)
	if err != nil {
		return nil, rerrors.Wrapf(rerrors.ErrBackend, "read tree %s: %v", id.Hex(), err)
	}
	return t, nil
}

// AutoMergedParentTree approximates jj's "virtually auto-merge all
// parents" semantics with the common first-parent fallback real-world
// tools use when a true N-way merge isn't readily available: go-git
// exposes tree diffing but not a merge algorithm, so for merge commits
// this backend diffs against the first parent's tree only. Documented
// simplification, not a silent narrowing: a genuinely auto-merged tree
// would also surface changes a merge resolved away from non-first
// parents, which this approximation misses.
func (r *Repository) AutoMergedParentTree(_ context.Context, parents []types.TreeId) (types.TreeId, error) {
	if len(parents) == 0 {
		return r.EmptyTreeId(), nil
	}
	return parents[0], nil
}
