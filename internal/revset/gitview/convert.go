package gitview

import (
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/teranos/revset/internal/revset/types"
)

// convertCommit adapts a go-git commit into this engine's read-only
// Commit view. Plain git has no distinct change identity (jj's ChangeId
// survives a commit being rewritten; a git commit's hash does not) — this
// adapter synthesizes ChangeId from the same hash bytes CommitId uses.
// The two ids render in disjoint alphabets (hex vs reverse-hex) so
// prefix lookups never collide, but unlike a real jj repository,
// rewriting history here would also change the change id. That is an
// acceptable approximation for a read-only view over existing git
// history, where no rewrite ever happens.
func convertCommit(c *object.Commit) *types.Commit {
	id := types.CommitId(c.Hash[:])
	parents := make([]types.CommitId, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, types.CommitId(p[:]))
	}
	return &types.Commit{
		Id:          id,
		ChangeId:    types.ChangeId(c.Hash[:]),
		Parents:     parents,
		Author:      convertSignature(c.Author),
		Committer:   convertSignature(c.Committer),
		Description: c.Message,
		RootTree:    types.TreeId(c.TreeHash[:]),
		Signature:   convertSignature2(c),
	}
}

func convertSignature(sig object.Signature) types.Signature {
	_, offsetSeconds := sig.When.Zone()
	return types.Signature{
		Name:  sig.Name,
		Email: sig.Email,
		Timestamp: types.Timestamp{
			Millis:       types.MillisSinceEpoch(sig.When.UnixMilli()),
			TzOffsetMins: offsetSeconds / 60,
		},
	}
}

// convertSignature2 reports whether the commit carries a PGP/SSH
// signature, without verifying it (verification is out of scope for a
// read-only graph view).
func convertSignature2(c *object.Commit) types.SecureSignature {
	return types.SecureSignature{Present: c.PGPSignature != ""}
}
