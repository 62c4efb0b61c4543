package types

// Signature is an author or committer identity plus the instant they
// acted.
type Signature struct {
	Name      string
	Email     string
	Timestamp Timestamp
}

// NameEmail joins the signature the way author()/committer() predicates
// match it: "<name> <email>".
func (s Signature) NameEmail() string {
	return s.Name + " " + s.Email
}

// SignBehavior tags how a commit's secure signature (if any) should be
// treated by downstream tooling. The revset engine only cares whether a
// signature is present (see the `signed` predicate); the behavior tag is
// carried through because the backend's Commit view exposes it.
type SignBehavior int

const (
	SignBehaviorUnspecified SignBehavior = iota
	SignBehaviorOwn
	SignBehaviorKeep
	SignBehaviorDrop
)

// SecureSignature is the cryptographic signature over a commit, distinct
// from the author/committer Signature identity above.
type SecureSignature struct {
	Present bool
	Key     string
	Raw     []byte
}

// Commit is the read-only view of a commit as exposed by the backend
// capability (§6). The engine never constructs or mutates one.
type Commit struct {
	Id          CommitId
	ChangeId    ChangeId
	Parents     []CommitId // ordered
	Author      Signature
	Committer   Signature
	Description string
	RootTree    TreeId
	Signature   SecureSignature
	SignBehavior SignBehavior
}

// Subject returns the first line of the description, or "" if the
// description is empty.
func (c *Commit) Subject() string {
	for i := 0; i < len(c.Description); i++ {
		if c.Description[i] == '\n' {
			return c.Description[:i]
		}
	}
	return c.Description
}

// IsMerge reports whether the commit has at least two parents.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) >= 2
}

// TreeId identifies a root tree (or any subtree) by content address.
type TreeId []byte

// Hex renders the tree id as lowercase hex.
func (t TreeId) Hex() string { return hexEncode(t) }

// ConflictStatus describes whether a tree carries unresolved conflicts.
// The diff capability (§6) is the authority on tree contents; the engine
// only asks whether any exist.
type ConflictStatus struct {
	HasConflicts bool
}

// RefTarget is either absent, a single commit (normal), or conflicted
// (multiple candidate commits recorded as ordered multisets of removes and
// adds, preserving insertion order for diagnostics).
type RefTarget struct {
	absent   bool
	normal   CommitId
	adds     []CommitId
	removes  []CommitId
	conflict bool
}

// AbsentRefTarget is the canonical absent target. Absent targets are
// pruned from view snapshots per §3's invariant; resolvers still need to
// construct and test against it.
func AbsentRefTarget() RefTarget {
	return RefTarget{absent: true}
}

// NormalRefTarget builds a single-commit (non-conflicted) target.
func NormalRefTarget(id CommitId) RefTarget {
	return RefTarget{normal: id, adds: []CommitId{id}}
}

// ConflictedRefTarget builds a conflicted target from ordered adds/removes
// multisets.
func ConflictedRefTarget(adds, removes []CommitId) RefTarget {
	return RefTarget{conflict: true, adds: adds, removes: removes}
}

// IsAbsent reports whether the target is absent.
func (r RefTarget) IsAbsent() bool { return r.absent }

// IsConflict reports whether the target is conflicted.
func (r RefTarget) IsConflict() bool { return r.conflict }

// IsPresent is the dual of IsAbsent.
func (r RefTarget) IsPresent() bool { return !r.absent }

// AddedIds returns the ordered "adds" of a target: for a normal target
// that is the single commit; for a conflicted target it's the conflict's
// adds; for an absent target it's empty. Symbol lookup treats a
// conflicted target as the set of its adds, per §3.
func (r RefTarget) AddedIds() []CommitId {
	if r.absent {
		return nil
	}
	if r.conflict {
		return r.adds
	}
	return []CommitId{r.normal}
}

// RemovedIds returns the conflict's removes multiset (empty for
// non-conflicted targets).
func (r RefTarget) RemovedIds() []CommitId {
	return r.removes
}

// RemoteRefState distinguishes a remote bookmark that was just observed
// ("New") from one with a local counterpart tracking it ("Tracked").
type RemoteRefState int

const (
	RemoteRefNew RemoteRefState = iota
	RemoteRefTracked
)

// RemoteRef pairs a RefTarget with its tracking state.
type RemoteRef struct {
	Target RefTarget
	State  RemoteRefState
}

// Tracked reports whether the remote ref is tracked locally.
func (r RemoteRef) Tracked() bool { return r.State == RemoteRefTracked }

// GitTrackingRemote is the reserved sentinel remote name denoting the
// local mirror of a colocated git repository. It is excluded from
// remote_bookmarks() unless explicitly requested by name.
const GitTrackingRemote = "git"

// RemoteBookmarkKey identifies a (bookmark-name, remote-name) pair.
type RemoteBookmarkKey struct {
	Name   string
	Remote string
}

// ViewSnapshot is the set of references visible at one operation of the
// operation log.
type ViewSnapshot struct {
	LocalBookmarks  map[string]RefTarget
	RemoteBookmarks map[RemoteBookmarkKey]RemoteRef
	Tags            map[string]RefTarget
	GitRefs         map[string]RefTarget // full ref path, e.g. "refs/heads/main"
	GitHead         RefTarget            // absent if none
	WorkingCopies   map[string]CommitId  // workspace name -> commit
}

// NewViewSnapshot returns an empty, initialized snapshot.
func NewViewSnapshot() *ViewSnapshot {
	return &ViewSnapshot{
		LocalBookmarks:  map[string]RefTarget{},
		RemoteBookmarks: map[RemoteBookmarkKey]RemoteRef{},
		Tags:            map[string]RefTarget{},
		GitRefs:         map[string]RefTarget{},
		GitHead:         AbsentRefTarget(),
		WorkingCopies:   map[string]CommitId{},
	}
}

// PruneAbsent removes any absent targets from the maps, per the view
// snapshot invariant in §3.
func (v *ViewSnapshot) PruneAbsent() {
	for k, t := range v.LocalBookmarks {
		if t.IsAbsent() {
			delete(v.LocalBookmarks, k)
		}
	}
	for k, r := range v.RemoteBookmarks {
		if r.Target.IsAbsent() {
			delete(v.RemoteBookmarks, k)
		}
	}
	for k, t := range v.Tags {
		if t.IsAbsent() {
			delete(v.Tags, k)
		}
	}
	for k, t := range v.GitRefs {
		if t.IsAbsent() {
			delete(v.GitRefs, k)
		}
	}
}
