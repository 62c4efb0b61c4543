package gitview

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/teranos/revset/internal/revset/types"
)

// BuildView reads the repository's current branches, tags, remotes and
// HEAD into a ViewSnapshot (§3), the same refs ixgest/git/ingest.go's
// processBranches walks via repo.Branches(). Git has no per-workspace
// working-copy commit; this adapter records HEAD's commit under the
// single workspace name "default" as the closest available analog.
func BuildView(r *Repository) (*types.ViewSnapshot, error) {
	v := types.NewViewSnapshot()

	branches, err := r.repo.Branches()
	if err != nil {
		return nil, err
	}
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		v.LocalBookmarks[ref.Name().Short()] = types.NormalRefTarget(types.CommitId(ref.Hash()[:]))
		return nil
	})
	if err != nil {
		return nil, err
	}

	tags, err := r.repo.Tags()
	if err != nil {
		return nil, err
	}
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tagObj, tErr := r.repo.TagObject(hash); tErr == nil {
			hash = tagObj.Target
		}
		v.Tags[ref.Name().Short()] = types.NormalRefTarget(types.CommitId(hash[:]))
		return nil
	})
	if err != nil {
		return nil, err
	}

	remotes, err := r.repo.References()
	if err != nil {
		return nil, err
	}
	err = remotes.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, "refs/remotes/") {
			return nil
		}
		rest := strings.TrimPrefix(name, "refs/remotes/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 {
			return nil
		}
		remote, branch := parts[0], parts[1]
		key := types.RemoteBookmarkKey{Name: branch, Remote: remote}
		v.RemoteBookmarks[key] = types.RemoteRef{
			Target: types.NormalRefTarget(types.CommitId(ref.Hash()[:])),
			State:  remoteTrackingState(v, branch),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	head, err := r.repo.Head()
	if err == nil {
		v.GitHead = types.NormalRefTarget(types.CommitId(head.Hash()[:]))
		v.WorkingCopies["default"] = types.CommitId(head.Hash()[:])
	}

	return v, nil
}

func remoteTrackingState(v *types.ViewSnapshot, branch string) types.RemoteRefState {
	if _, ok := v.LocalBookmarks[branch]; ok {
		return types.RemoteRefTracked
	}
	return types.RemoteRefNew
}
