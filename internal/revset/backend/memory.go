package backend

import (
	"context"
	"sort"
	"strings"

	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

// Memory is a fixture Backend+Index+Diff used by unit and property tests
// (§6, §8): commits are added in topological order and assigned a
// monotonically increasing position, so later AddCommit calls always sort
// ahead of earlier ones in AllIds()/AncestorsOf() — exactly the ordering
// contract (§4.3) a real index provides from creation order.
type Memory struct {
	commits   map[string]*types.Commit
	trees     map[string]*Tree
	conflicts map[string]bool
	position  map[string]uint64
	order     []types.CommitId
	children  map[string][]types.CommitId
	root      types.CommitId
	emptyTree types.TreeId
}

// NewMemory returns an empty fixture backend.
func NewMemory() *Memory {
	return &Memory{
		commits:   map[string]*types.Commit{},
		trees:     map[string]*Tree{},
		conflicts: map[string]bool{},
		position:  map[string]uint64{},
		children:  map[string][]types.CommitId{},
	}
}

// SetConflicted marks the tree id as carrying unresolved conflicts, for
// `conflicts` predicate fixtures.
func (m *Memory) SetConflicted(id types.TreeId, conflicted bool) {
	m.conflicts[id.Hex()] = conflicted
}

func (m *Memory) ConflictStatus(_ context.Context, id types.TreeId) (types.ConflictStatus, error) {
	return types.ConflictStatus{HasConflicts: m.conflicts[id.Hex()]}, nil
}

// SetRoot records the id RootCommitId reports as the DAG's single
// synthetic root (§3 "root()").
func (m *Memory) SetRoot(id types.CommitId) { m.root = id }

// SetEmptyTreeId records the content-addressed empty tree id.
func (m *Memory) SetEmptyTreeId(id types.TreeId) { m.emptyTree = id }

// AddCommit registers a commit and its adjacency. Parents must already be
// registered (commits are added in topological order, parents first).
func (m *Memory) AddCommit(c *types.Commit) {
	key := c.Id.Hex()
	m.commits[key] = c
	m.position[key] = uint64(len(m.order)) + 1
	m.order = append(m.order, c.Id)
	for _, p := range c.Parents {
		pkey := p.Hex()
		m.children[pkey] = append(m.children[pkey], c.Id)
	}
}

// AddTree registers a tree fixture for ReadTree/diff lookups.
func (m *Memory) AddTree(t *Tree) { m.trees[t.Id.Hex()] = t }

// --- Backend ---

func (m *Memory) ReadCommit(_ context.Context, id types.CommitId) (*types.Commit, error) {
	c, ok := m.commits[id.Hex()]
	if !ok {
		return nil, rerrors.Wrapf(rerrors.ErrBackend, "no such commit %s", id.Hex())
	}
	return c, nil
}

func (m *Memory) ReadTree(_ context.Context, id types.TreeId) (*Tree, error) {
	t, ok := m.trees[id.Hex()]
	if !ok {
		return &Tree{Id: id}, nil
	}
	return t, nil
}

func (m *Memory) RootCommitId() types.CommitId { return m.root }
func (m *Memory) EmptyTreeId() types.TreeId    { return m.emptyTree }

func (m *Memory) AllHeads(_ context.Context) ([]types.CommitId, error) {
	var heads []types.CommitId
	for _, id := range m.order {
		if len(m.children[id.Hex()]) == 0 {
			heads = append(heads, id)
		}
	}
	return heads, nil
}

// --- Index ---

func (m *Memory) PositionOf(id types.CommitId) (uint64, bool) {
	p, ok := m.position[id.Hex()]
	return p, ok
}

func (m *Memory) GenerationNumber(id types.CommitId) (uint64, bool) {
	c, ok := m.commits[id.Hex()]
	if !ok {
		return 0, false
	}
	if len(c.Parents) == 0 {
		return 0, true
	}
	var maxParent uint64
	for _, p := range c.Parents {
		g, ok := m.GenerationNumber(p)
		if ok && g > maxParent {
			maxParent = g
		}
	}
	return maxParent + 1, true
}

func (m *Memory) Parents(id types.CommitId) []types.CommitId {
	c, ok := m.commits[id.Hex()]
	if !ok {
		return nil
	}
	return c.Parents
}

func (m *Memory) Children(id types.CommitId) []types.CommitId {
	return m.children[id.Hex()]
}

// AncestorsOf performs a multi-source BFS over parent edges, returning the
// closure sorted by strictly decreasing position (§4.3's ordering contract).
func (m *Memory) AncestorsOf(ids []types.CommitId) ([]types.CommitId, error) {
	seen := map[string]bool{}
	var result []types.CommitId
	queue := append([]types.CommitId{}, ids...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		key := id.Hex()
		if seen[key] {
			continue
		}
		if _, ok := m.commits[key]; !ok {
			continue
		}
		seen[key] = true
		result = append(result, id)
		queue = append(queue, m.Parents(id)...)
	}
	m.sortByPosition(result)
	return result, nil
}

func (m *Memory) sortByPosition(ids []types.CommitId) {
	sort.SliceStable(ids, func(i, j int) bool {
		return m.position[ids[i].Hex()] > m.position[ids[j].Hex()]
	})
}

// isAncestor reports whether a is an ancestor of (or equal to) b.
func (m *Memory) isAncestor(a, b types.CommitId) bool {
	if a.Equal(b) {
		return true
	}
	seen := map[string]bool{}
	queue := []types.CommitId{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		key := cur.Hex()
		if seen[key] {
			continue
		}
		seen[key] = true
		for _, p := range m.Parents(cur) {
			if p.Equal(a) {
				return true
			}
			queue = append(queue, p)
		}
	}
	return false
}

// CommonAncestors returns the maximal common ancestors of a and b: the
// greatest elements of the intersection of their ancestor sets, ordered by
// the "no common ancestor is itself an ancestor of another" rule so
// criss-cross histories report every fork point (§4.3 ForkPoint).
func (m *Memory) CommonAncestors(a, b types.CommitId) ([]types.CommitId, error) {
	ancA, err := m.AncestorsOf([]types.CommitId{a})
	if err != nil {
		return nil, err
	}
	ancB, err := m.AncestorsOf([]types.CommitId{b})
	if err != nil {
		return nil, err
	}
	bSet := map[string]bool{}
	for _, id := range ancB {
		bSet[id.Hex()] = true
	}
	var common []types.CommitId
	for _, id := range ancA {
		if bSet[id.Hex()] {
			common = append(common, id)
		}
	}
	return m.HeadsOf(common), nil
}

// HeadsOf returns the elements of candidates with no descendant also in
// candidates.
func (m *Memory) HeadsOf(candidates []types.CommitId) []types.CommitId {
	var heads []types.CommitId
	for i, c := range candidates {
		isHead := true
		for j, other := range candidates {
			if i == j {
				continue
			}
			if m.isAncestor(c, other) && !c.Equal(other) {
				isHead = false
				break
			}
		}
		if isHead {
			heads = append(heads, c)
		}
	}
	m.sortByPosition(heads)
	return dedupe(heads)
}

// RootsOf returns the elements of candidates with no ancestor also in
// candidates.
func (m *Memory) RootsOf(candidates []types.CommitId) []types.CommitId {
	var roots []types.CommitId
	for i, c := range candidates {
		isRoot := true
		for j, other := range candidates {
			if i == j {
				continue
			}
			if m.isAncestor(other, c) && !c.Equal(other) {
				isRoot = false
				break
			}
		}
		if isRoot {
			roots = append(roots, c)
		}
	}
	m.sortByPosition(roots)
	return dedupe(roots)
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

func (m *Memory) CommitsWithPrefix(hexPrefix string) PrefixLookup {
	var matches []types.CommitId
	for _, id := range m.order {
		if strings.HasPrefix(id.Hex(), hexPrefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return PrefixLookup{}
	case 1:
		return PrefixLookup{Unique: matches[0], Found: true}
	default:
		return PrefixLookup{Ambiguous: true}
	}
}

func (m *Memory) CommitsWithChangeIdPrefix(reverseHexPrefix string) ([]types.CommitId, PrefixLookup) {
	var matches []types.CommitId
	for _, id := range m.order {
		c := m.commits[id.Hex()]
		if strings.HasPrefix(c.ChangeId.String(), reverseHexPrefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return nil, PrefixLookup{}
	default:
		return matches, PrefixLookup{Ambiguous: len(matches) > 1, Found: true}
	}
}

func (m *Memory) AllIds() []types.CommitId {
	out := append([]types.CommitId{}, m.order...)
	m.sortByPosition(out)
	return out
}

// --- Diff ---

func (m *Memory) TreeDiff(_ context.Context, from, to types.TreeId) ([]PathDiff, error) {
	fromTree := m.trees[from.Hex()]
	toTree := m.trees[to.Hex()]
	fromPaths := map[string]TreeEntry{}
	if fromTree != nil {
		for _, e := range fromTree.Entries {
			fromPaths[e.Path] = e
		}
	}
	var diffs []PathDiff
	if toTree != nil {
		for _, e := range toTree.Entries {
			if old, ok := fromPaths[e.Path]; !ok || string(old.FileId) != string(e.FileId) {
				diffs = append(diffs, PathDiff{Path: e.Path})
			}
			delete(fromPaths, e.Path)
		}
	}
	for path := range fromPaths {
		diffs = append(diffs, PathDiff{Path: path})
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
	return diffs, nil
}

// AutoMergedParentTree returns the single parent's tree unchanged, or for
// multiple parents a synthetic union of their entries (a simplified stand-in
// for a real merge algorithm, sufficient for the files()/diff_contains()
// fixtures this reference backend serves).
func (m *Memory) AutoMergedParentTree(_ context.Context, parents []types.TreeId) (types.TreeId, error) {
	if len(parents) == 1 {
		return parents[0], nil
	}
	merged := &Tree{Id: types.TreeId([]byte("merged:" + joinTreeIds(parents)))}
	seen := map[string]bool{}
	for _, pid := range parents {
		t := m.trees[pid.Hex()]
		if t == nil {
			continue
		}
		for _, e := range t.Entries {
			if seen[e.Path] {
				continue
			}
			seen[e.Path] = true
			merged.Entries = append(merged.Entries, e)
		}
	}
	m.trees[merged.Id.Hex()] = merged
	return merged.Id, nil
}

func joinTreeIds(ids []types.TreeId) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(id.Hex())
	}
	return sb.String()
}
