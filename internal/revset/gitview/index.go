package gitview

import (
	"sort"
	"strings"

	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/types"
)

// --- backend.Index ---
//
// Implemented the same way backend.Memory does (§6's Index capability is
// deliberately small), but backed by the topological order/adjacency
// built once in Load rather than fixture data.

func (r *Repository) PositionOf(id types.CommitId) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.position[id.Hex()]
	return p, ok
}

func (r *Repository) GenerationNumber(id types.CommitId) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generationLocked(id, map[string]bool{})
}

func (r *Repository) generationLocked(id types.CommitId, visiting map[string]bool) (uint64, bool) {
	c, ok := r.commits[id.Hex()]
	if !ok {
		return 0, false
	}
	if len(c.Parents) == 0 {
		return 0, true
	}
	if visiting[id.Hex()] {
		return 0, false
	}
	visiting[id.Hex()] = true
	var maxParent uint64
	for _, p := range c.Parents {
		g, ok := r.generationLocked(p, visiting)
		if ok && g > maxParent {
			maxParent = g
		}
	}
	return maxParent + 1, true
}

func (r *Repository) Parents(id types.CommitId) []types.CommitId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commits[id.Hex()]
	if !ok {
		return nil
	}
	return c.Parents
}

func (r *Repository) Children(id types.CommitId) []types.CommitId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.children[id.Hex()]
}

func (r *Repository) AncestorsOf(ids []types.CommitId) ([]types.CommitId, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
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
		c, ok := r.commits[key]
		if !ok {
			continue
		}
		seen[key] = true
		result = append(result, id)
		queue = append(queue, c.Parents...)
	}
	r.sortByPositionLocked(result)
	return result, nil
}

func (r *Repository) sortByPositionLocked(ids []types.CommitId) {
	sort.SliceStable(ids, func(i, j int) bool {
		return r.position[ids[i].Hex()] > r.position[ids[j].Hex()]
	})
}

func (r *Repository) isAncestorLocked(a, b types.CommitId) bool {
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
		c, ok := r.commits[key]
		if !ok {
			continue
		}
		for _, p := range c.Parents {
			if p.Equal(a) {
				return true
			}
			queue = append(queue, p)
		}
	}
	return false
}

func (r *Repository) CommonAncestors(a, b types.CommitId) ([]types.CommitId, error) {
	ancA, err := r.AncestorsOf([]types.CommitId{a})
	if err != nil {
		return nil, err
	}
	ancB, err := r.AncestorsOf([]types.CommitId{b})
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
	return r.HeadsOf(common), nil
}

func (r *Repository) HeadsOf(candidates []types.CommitId) []types.CommitId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var heads []types.CommitId
	for i, c := range candidates {
		isHead := true
		for j, other := range candidates {
			if i == j {
				continue
			}
			if r.isAncestorLocked(c, other) && !c.Equal(other) {
				isHead = false
				break
			}
		}
		if isHead {
			heads = append(heads, c)
		}
	}
	r.sortByPositionLocked(heads)
	return dedupe(heads)
}

func (r *Repository) RootsOf(candidates []types.CommitId) []types.CommitId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var roots []types.CommitId
	for i, c := range candidates {
		isRoot := true
		for j, other := range candidates {
			if i == j {
				continue
			}
			if r.isAncestorLocked(other, c) && !c.Equal(other) {
				isRoot = false
				break
			}
		}
		if isRoot {
			roots = append(roots, c)
		}
	}
	r.sortByPositionLocked(roots)
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

func (r *Repository) CommitsWithPrefix(hexPrefix string) backend.PrefixLookup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []types.CommitId
	for _, id := range r.order {
		if strings.HasPrefix(id.Hex(), hexPrefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return backend.PrefixLookup{}
	case 1:
		return backend.PrefixLookup{Unique: matches[0], Found: true}
	default:
		return backend.PrefixLookup{Ambiguous: true}
	}
}

func (r *Repository) CommitsWithChangeIdPrefix(reverseHexPrefix string) ([]types.CommitId, backend.PrefixLookup) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []types.CommitId
	for _, id := range r.order {
		c := r.commits[id.Hex()]
		if strings.HasPrefix(c.ChangeId.String(), reverseHexPrefix) {
			matches = append(matches, id)
		}
	}
	if len(matches) == 0 {
		return nil, backend.PrefixLookup{}
	}
	return matches, backend.PrefixLookup{Ambiguous: len(matches) > 1, Found: true}
}

func (r *Repository) AllIds() []types.CommitId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]types.CommitId{}, r.order...)
	r.sortByPositionLocked(out)
	return out
}
