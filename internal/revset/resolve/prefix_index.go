package resolve

import (
	"sort"
	"sync"

	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/types"
)

// prefixIndex restricts commit/change-id prefix disambiguation to the
// resolver's configured domain (§4.2's "disambiguation domain"). Its
// pointer is allocated at most once per Resolver (guarded by
// Resolver.prefixIdxOnce) and its contents are built at most once
// (guarded by its own sync.Once), so concurrent queries sharing one
// Resolver (§5) never race on either the allocation or the population.
type prefixIndex struct {
	once sync.Once
	mu   sync.RWMutex
	hex  []string // domain commit hex ids, sorted
	ids  map[string]types.CommitId
}

func (r *Resolver) domainPrefixIndex() *prefixIndex {
	r.prefixIdxOnce.Do(func() {
		r.prefixIdx = &prefixIndex{}
	})
	return r.prefixIdx
}

func (p *prefixIndex) build(idx backend.Index, domain map[string]bool) {
	p.once.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.ids = map[string]types.CommitId{}
		for _, id := range idx.AllIds() {
			key := id.Hex()
			if domain != nil && !domain[key] {
				continue
			}
			p.ids[key] = id
			p.hex = append(p.hex, key)
		}
		sort.Strings(p.hex)
	})
}

// commitsWithPrefix scans only the domain-restricted id set.
func (p *prefixIndex) commitsWithPrefix(prefix string) backend.PrefixLookup {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i := sort.SearchStrings(p.hex, prefix)
	var matches []types.CommitId
	for j := i; j < len(p.hex) && hasPrefix(p.hex[j], prefix); j++ {
		matches = append(matches, p.ids[p.hex[j]])
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

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// commitsWithPrefix dispatches to the domain-restricted index when a
// disambiguation domain is configured, otherwise delegates directly to the
// backend index.
func (r *Resolver) commitsWithPrefix(prefix string) backend.PrefixLookup {
	if r.Domain == nil {
		return r.Index.CommitsWithPrefix(prefix)
	}
	pi := r.domainPrefixIndex()
	pi.build(r.Index, r.Domain)
	return pi.commitsWithPrefix(prefix)
}
