// Package gitview adapts a real on-disk git repository, read through
// go-git, into the backend.Backend/backend.Index/backend.Diff
// capabilities the revset engine consumes. It is the non-fixture
// counterpart to backend.Memory, grounded on the same go-git APIs the
// teacher's git ingestion pipeline (ixgest/git/ingest.go) uses to walk a
// repository's commits and branches.
package gitview

import (
	"context"
	"sort"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

// emptyTreeHash is git's well-known hash for the empty tree, reused here
// as the revset engine's EmptyTreeId for root commits.
var emptyTreeHash = plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

// Repository is a read-only snapshot of a git repository's commit graph,
// loaded once and queried many times (§5: resolved index/view are
// immutable once built). Git has no first-class change-id or working-copy
// concept the way jj does; Repository synthesizes both (see ChangeId in
// convert.go and WorkingCopies in view.go) and documents the
// simplification rather than pretending otherwise.
type Repository struct {
	repo   *git.Repository
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	commits  map[string]*types.Commit // hex commit id -> converted commit
	position map[string]uint64
	order    []types.CommitId // ascending position order (oldest first)
	children map[string][]types.CommitId
	root     types.CommitId
	gogit    map[string]*object.Commit // hex commit id -> raw go-git commit, for diffing
}

// Load opens the repository at path and loads every commit object in its
// object store (repo.CommitObjects(), which includes commits no ref
// reaches), building the Backend+Index snapshot this revset engine
// evaluates against. Grounded on ixgest/git/ingest.go's use of
// git.PlainOpen + repo.CommitObjects().
func Load(ctx context.Context, path string, logger *zap.SugaredLogger) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, rerrors.Wrapf(rerrors.ErrBackend, "open repository at %s: %v", path, err)
	}

	r := &Repository{
		repo:     repo,
		logger:   logger,
		commits:  map[string]*types.Commit{},
		position: map[string]uint64{},
		children: map[string][]types.CommitId{},
		gogit:    map[string]*object.Commit{},
	}

	if err := r.loadCommits(ctx); err != nil {
		return nil, err
	}
	logger.Infow("loaded git repository", "path", path, "commits", len(r.order))
	return r, nil
}

func (r *Repository) loadCommits(ctx context.Context) error {
	iter, err := r.repo.CommitObjects()
	if err != nil {
		return rerrors.Wrap(err, "enumerate commit objects")
	}
	defer iter.Close()

	raw := map[string]*object.Commit{}
	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		raw[c.Hash.String()] = c
		return nil
	})
	if err != nil {
		return rerrors.Wrap(err, "walk commit objects")
	}

	order := topoOrder(raw)
	for i, hash := range order {
		c := raw[hash]
		id := types.CommitId(c.Hash[:])
		r.gogit[hash] = c
		r.commits[hash] = convertCommit(c)
		r.position[hash] = uint64(i) + 1
		r.order = append(r.order, id)
		for _, p := range c.ParentHashes {
			pkey := p.String()
			r.children[pkey] = append(r.children[pkey], id)
		}
	}
	if len(order) > 0 {
		r.root = types.CommitId(raw[order[0]].Hash[:])
	}
	return nil
}

// topoOrder returns commit hashes ordered so every parent precedes its
// children (Kahn's algorithm), breaking ties by hash for determinism.
func topoOrder(raw map[string]*object.Commit) []string {
	indegree := map[string]int{}
	for hash, c := range raw {
		if _, ok := indegree[hash]; !ok {
			indegree[hash] = 0
		}
		for _, p := range c.ParentHashes {
			pkey := p.String()
			if _, ok := raw[pkey]; ok {
				indegree[hash]++
			}
		}
	}
	childrenOf := map[string][]string{}
	for hash, c := range raw {
		for _, p := range c.ParentHashes {
			pkey := p.String()
			if _, ok := raw[pkey]; ok {
				childrenOf[pkey] = append(childrenOf[pkey], hash)
			}
		}
	}

	var ready []string
	for hash, d := range indegree {
		if d == 0 {
			ready = append(ready, hash)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		hash := ready[0]
		ready = ready[1:]
		order = append(order, hash)
		for _, child := range childrenOf[hash] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}
	return order
}

// --- backend.Backend ---

func (r *Repository) ReadCommit(_ context.Context, id types.CommitId) (*types.Commit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commits[id.Hex()]
	if !ok {
		return nil, rerrors.Wrapf(rerrors.ErrBackend, "no such commit %s", id.Hex())
	}
	return c, nil
}

func (r *Repository) ReadTree(_ context.Context, id types.TreeId) (*backend.Tree, error) {
	hash := plumbing.NewHash(id.Hex())
	if hash == emptyTreeHash || len(id) == 0 {
		return &backend.Tree{Id: id}, nil
	}
	tree, err := r.repo.TreeObject(hash)
	if err != nil {
		return nil, rerrors.Wrapf(rerrors.ErrBackend, "read tree %s: %v", id.Hex(), err)
	}
	t := &backend.Tree{Id: id}
	for _, e := range tree.Entries {
		t.Entries = append(t.Entries, backend.TreeEntry{
			Path:   e.Name,
			FileId: e.Hash[:],
			IsDir:  e.Mode == 0o040000,
			TreeId: types.TreeId(e.Hash[:]),
		})
	}
	return t, nil
}

func (r *Repository) RootCommitId() types.CommitId { return r.root }
func (r *Repository) EmptyTreeId() types.TreeId    { return types.TreeId(emptyTreeHash[:]) }

func (r *Repository) AllHeads(_ context.Context) ([]types.CommitId, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var heads []types.CommitId
	for _, id := range r.order {
		if len(r.children[id.Hex()]) == 0 {
			heads = append(heads, id)
		}
	}
	return heads, nil
}

// ConflictStatus always reports no conflicts: plain git never commits an
// unresolved merge, unlike jj's first-class conflict markers, so this
// backend has nothing to report here (§4.4's `conflicts` predicate is
// always false against a git-backed view).
func (r *Repository) ConflictStatus(_ context.Context, _ types.TreeId) (types.ConflictStatus, error) {
	return types.ConflictStatus{}, nil
}
