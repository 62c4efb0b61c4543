// Package resolve implements the symbol resolver (§4.2): it turns the
// ast.CommitRef nodes left behind by parsing into concrete commit-id sets,
// using a repository view snapshot and an index for prefix lookups.
package resolve

import (
	"sort"
	"strings"
	"sync"

	"github.com/teranos/revset/internal/revset/ast"
	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

// MaxSuggestions bounds the candidate list attached to NoSuchRevision
// errors (§4.2 step 6's "up to k suggestions").
const MaxSuggestions = 5

// Extension is an open set of plug-in resolvers consulted before built-in
// resolution (§9's SymbolResolverExtension). Returning ok=false falls
// through to the built-in order.
type Extension interface {
	Resolve(symbol string) (ids []types.CommitId, ok bool, err error)
}

// Resolver maps ast.CommitRef nodes to commit-id sets against one
// repository view snapshot and index. A Resolver is immutable and safe
// for concurrent use by multiple queries (§5).
type Resolver struct {
	View       *types.ViewSnapshot
	Index      backend.Index
	Workspace  string // current workspace name, for bare "@"
	Extensions []Extension

	// Domain optionally restricts prefix-disambiguation candidates (§4.2's
	// "disambiguation domain"); nil means the whole index.
	Domain map[string]bool

	prefixIdxOnce sync.Once
	prefixIdx     *prefixIndex
}

// New builds a Resolver. domain, if non-nil, is the set of commit-hex-keys
// prefix lookups may disambiguate within.
func New(view *types.ViewSnapshot, idx backend.Index, workspace string, domain map[string]bool) *Resolver {
	return &Resolver{View: view, Index: idx, Workspace: workspace, Domain: domain}
}

// ResolveRef resolves one ast.CommitRef into commit ids, in snapshot/batch
// order (§4.2's "Batch operations").
func (r *Resolver) ResolveRef(ref ast.CommitRef) ([]types.CommitId, error) {
	switch ref.Kind {
	case ast.RefWorkingCopy:
		ws := ref.Workspace
		if ws == "" {
			ws = r.Workspace
		}
		id, ok := r.View.WorkingCopies[ws]
		if !ok {
			return nil, rerrors.NewWorkspaceMissingWorkingCopy(ws)
		}
		return []types.CommitId{id}, nil

	case ast.RefWorkingCopiesAll:
		var ids []types.CommitId
		names := sortedKeys(r.View.WorkingCopies)
		for _, name := range names {
			ids = append(ids, r.View.WorkingCopies[name])
		}
		return ids, nil

	case ast.RefLocalBookmarks:
		return r.matchBookmarks(ref.NamePattern), nil

	case ast.RefTags:
		return r.matchTags(ref.NamePattern), nil

	case ast.RefRemoteBookmarks:
		return r.matchRemoteBookmarks(ref), nil

	case ast.RefGitRefs:
		return r.allGitRefs(), nil

	case ast.RefGitHead:
		if r.View.GitHead.IsAbsent() {
			return nil, nil
		}
		return r.View.GitHead.AddedIds(), nil

	case ast.RefSymbol:
		return r.ResolveSymbol(ref.Symbol)

	default:
		return nil, rerrors.Newf("revset: unknown CommitRef kind %d", ref.Kind)
	}
}

// ResolveSymbol implements the six-step bare-identifier resolution order
// of §4.2.
func (r *Resolver) ResolveSymbol(s string) ([]types.CommitId, error) {
	if s == "" {
		return nil, rerrors.ErrEmptyString
	}

	for _, ext := range r.Extensions {
		if ids, ok, err := ext.Resolve(s); ok {
			return ids, err
		}
	}

	// Step 1: bare "@".
	if s == "@" {
		id, ok := r.View.WorkingCopies[r.Workspace]
		if !ok {
			return nil, rerrors.NewWorkspaceMissingWorkingCopy(r.Workspace)
		}
		return []types.CommitId{id}, nil
	}

	// Step 2: "name@remote".
	if name, remote, ok := splitRemoteSymbol(s); ok {
		key := types.RemoteBookmarkKey{Name: name, Remote: remote}
		if rr, ok := r.View.RemoteBookmarks[key]; ok {
			return rr.Target.AddedIds(), nil
		}
		return nil, r.noSuchRevision(s)
	}

	// Step 3: tag, local bookmark, git ref (heads/, tags/, as given).
	if t, ok := r.View.Tags[s]; ok {
		return t.AddedIds(), nil
	}
	if b, ok := r.View.LocalBookmarks[s]; ok {
		return b.AddedIds(), nil
	}
	for _, candidate := range []string{"refs/heads/" + s, "refs/tags/" + s, s} {
		if g, ok := r.View.GitRefs[candidate]; ok {
			return g.AddedIds(), nil
		}
	}

	// Step 4: commit-id hex prefix.
	if types.IsHexPrefix(s) {
		lookup := r.commitsWithPrefix(s)
		if lookup.Ambiguous {
			return nil, rerrors.NewAmbiguousCommitIdPrefix(s)
		}
		if lookup.Found {
			return []types.CommitId{lookup.Unique}, nil
		}
	}

	// Step 5: change-id reverse-hex prefix.
	if types.IsReverseHexPrefix(s) {
		ids, lookup := r.Index.CommitsWithChangeIdPrefix(s)
		if lookup.Ambiguous {
			return nil, rerrors.NewAmbiguousChangeIdPrefix(s)
		}
		if lookup.Found {
			return ids, nil
		}
	}

	// Step 6: no such revision.
	return nil, r.noSuchRevision(s)
}

func (r *Resolver) noSuchRevision(name string) error {
	return rerrors.NewNoSuchRevision(name, r.suggestions(name))
}

func splitRemoteSymbol(s string) (name, remote string, ok bool) {
	idx := strings.LastIndexByte(s, '@')
	if idx <= 0 || idx == len(s)-1 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

func (r *Resolver) matchBookmarks(pat interface{ Matches(string) bool }) []types.CommitId {
	names := sortedKeys(r.View.LocalBookmarks)
	var ids []types.CommitId
	for _, name := range names {
		if pat.Matches(name) {
			ids = append(ids, r.View.LocalBookmarks[name].AddedIds()...)
		}
	}
	return dedupePreserveOrder(ids)
}

func (r *Resolver) matchTags(pat interface{ Matches(string) bool }) []types.CommitId {
	names := sortedKeys(r.View.Tags)
	var ids []types.CommitId
	for _, name := range names {
		if pat.Matches(name) {
			ids = append(ids, r.View.Tags[name].AddedIds()...)
		}
	}
	return dedupePreserveOrder(ids)
}

func (r *Resolver) matchRemoteBookmarks(ref ast.CommitRef) []types.CommitId {
	type key = types.RemoteBookmarkKey
	keys := make([]key, 0, len(r.View.RemoteBookmarks))
	for k := range r.View.RemoteBookmarks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Remote < keys[j].Remote
	})
	var ids []types.CommitId
	for _, k := range keys {
		if k.Remote == types.GitTrackingRemote {
			continue // excluded from remote_bookmarks() per §3
		}
		if !ref.NamePattern.Matches(k.Name) {
			continue
		}
		if ref.HasRemotePat && !ref.RemotePattern.Matches(k.Remote) {
			continue
		}
		rr := r.View.RemoteBookmarks[k]
		if ref.Tracked != nil && rr.Tracked() != *ref.Tracked {
			continue
		}
		ids = append(ids, rr.Target.AddedIds()...)
	}
	return dedupePreserveOrder(ids)
}

func (r *Resolver) allGitRefs() []types.CommitId {
	paths := sortedKeys(r.View.GitRefs)
	var ids []types.CommitId
	for _, p := range paths {
		ids = append(ids, r.View.GitRefs[p].AddedIds()...)
	}
	return dedupePreserveOrder(ids)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupePreserveOrder(ids []types.CommitId) []types.CommitId {
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
