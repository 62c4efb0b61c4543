// Package backend declares the capability interfaces the revset engine
// consumes (§6): a read-only commit/tree store, a position/ancestor index,
// an operation store, and a diff algorithm. The engine owns none of these;
// it is handed implementations (gitview.Repository for a real git repo,
// backend.Memory for tests and fixtures).
package backend

import (
	"context"

	"github.com/teranos/revset/internal/revset/types"
)

// TreeEntry is one path-level entry of a Tree.
type TreeEntry struct {
	Path    string
	FileId  []byte
	IsDir   bool
	TreeId  types.TreeId // set when IsDir
}

// Tree is the read-only view of a commit's root tree (or a subtree) handed
// to the diff capability.
type Tree struct {
	Id      types.TreeId
	Entries []TreeEntry
}

// Backend is the read-only commit/tree store (§6 "Backend capability").
// Implementations bubble I/O failures wrapped in rerrors.ErrBackend.
type Backend interface {
	ReadCommit(ctx context.Context, id types.CommitId) (*types.Commit, error)
	ReadTree(ctx context.Context, id types.TreeId) (*Tree, error)
	RootCommitId() types.CommitId
	EmptyTreeId() types.TreeId
	// AllHeads returns every known commit that has no children (the
	// DAG's heads), the seed set callers use as visible heads.
	AllHeads(ctx context.Context) ([]types.CommitId, error)
	// ConflictStatus answers the `conflicts` predicate (§4.4): whether the
	// tree at id carries any unresolved conflict.
	ConflictStatus(ctx context.Context, id types.TreeId) (types.ConflictStatus, error)
}

// PrefixLookup is the three-way result of a prefix search: an empty
// candidate set, a unique match, or more than one match (ambiguous).
type PrefixLookup struct {
	Unique    types.CommitId
	Ambiguous bool
	Found     bool
}

// Index is the position/ancestry capability (§6 "Index capability") built
// once per repository snapshot and then queried read-only (§5).
type Index interface {
	PositionOf(id types.CommitId) (pos uint64, ok bool)
	// AncestorsOf returns every commit reachable from ids by following
	// parent edges, visited in strictly decreasing position order.
	AncestorsOf(ids []types.CommitId) ([]types.CommitId, error)
	GenerationNumber(id types.CommitId) (uint64, bool)
	// CommonAncestors returns the greatest common ancestor(s) of a and b;
	// more than one when the history is criss-crossed (§4.3 ForkPoint).
	CommonAncestors(a, b types.CommitId) ([]types.CommitId, error)
	HeadsOf(candidates []types.CommitId) []types.CommitId
	RootsOf(candidates []types.CommitId) []types.CommitId
	CommitsWithPrefix(hexPrefix string) PrefixLookup
	CommitsWithChangeIdPrefix(reverseHexPrefix string) ([]types.CommitId, PrefixLookup)
	// Parents and Children give the raw adjacency the evaluator's BFS
	// primitives walk; Children is the index's job because the Backend
	// only stores parent pointers.
	Parents(id types.CommitId) []types.CommitId
	Children(id types.CommitId) []types.CommitId
	// AllIds returns every commit known to the index, in position order
	// (highest position first), for All{}/empty()/full-DAG scans.
	AllIds() []types.CommitId
}

// OperationId identifies one entry in the append-only operation log.
type OperationId string

// OperationStore is the operation-log capability (§6) consulted only when
// at_operation(...) appears in a query.
type OperationStore interface {
	ResolveOp(symbol string) (OperationId, error)
	ViewAt(op OperationId) (*types.ViewSnapshot, error)
	ParentOps(op OperationId) ([]OperationId, error)
}

// PathDiff is one path-level difference between two trees.
type PathDiff struct {
	Path        string
	AddedLines  []string
	RemovedLines []string
}

// Diff is the textual/structural diff capability (§6) consumed by the
// files()/diff_contains() predicates. The engine never computes diffs
// itself.
type Diff interface {
	// TreeDiff enumerates path-level differences between two trees.
	TreeDiff(ctx context.Context, from, to types.TreeId) ([]PathDiff, error)
	// AutoMergedParentTree returns the tree a merge commit is diffed
	// against per §4.4: for a single parent that's just its tree, for
	// multiple parents it's a virtual auto-merge of all parent trees.
	AutoMergedParentTree(ctx context.Context, parents []types.TreeId) (types.TreeId, error)
}
