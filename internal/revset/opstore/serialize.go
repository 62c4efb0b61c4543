package opstore

import (
	"encoding/json"

	"github.com/teranos/revset/internal/revset/types"
)

// refTargetDTO is the JSON-serializable shape of a types.RefTarget,
// reconstructed through its public constructors: RefTarget's internal
// absent/normal/conflict fields are unexported so it round-trips through
// its own accessor methods rather than reflection.
type refTargetDTO struct {
	Absent  bool             `json:"absent,omitempty"`
	Conflict bool            `json:"conflict,omitempty"`
	Adds    []string         `json:"adds,omitempty"`
	Removes []string         `json:"removes,omitempty"`
}

func toDTO(t types.RefTarget) refTargetDTO {
	if t.IsAbsent() {
		return refTargetDTO{Absent: true}
	}
	dto := refTargetDTO{Conflict: t.IsConflict(), Adds: hexAll(t.AddedIds())}
	if t.IsConflict() {
		dto.Removes = hexAll(t.RemovedIds())
	}
	return dto
}

func fromDTO(dto refTargetDTO) types.RefTarget {
	if dto.Absent {
		return types.AbsentRefTarget()
	}
	if dto.Conflict {
		return types.ConflictedRefTarget(unhexAll(dto.Adds), unhexAll(dto.Removes))
	}
	ids := unhexAll(dto.Adds)
	if len(ids) == 0 {
		return types.AbsentRefTarget()
	}
	return types.NormalRefTarget(ids[0])
}

func hexAll(ids []types.CommitId) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

func unhexAll(hexes []string) []types.CommitId {
	out := make([]types.CommitId, len(hexes))
	for i, h := range hexes {
		out[i] = unhex(h)
	}
	return out
}

func unhex(s string) types.CommitId {
	b := make([]byte, len(s)/2)
	for i := 0; i < len(b); i++ {
		hi, _ := types.HexToNibble(s[2*i])
		lo, _ := types.HexToNibble(s[2*i+1])
		b[i] = hi<<4 | lo
	}
	return types.CommitId(b)
}

type remoteRefDTO struct {
	Name   string       `json:"name"`
	Remote string       `json:"remote"`
	Target refTargetDTO `json:"target"`
	Tracked bool        `json:"tracked"`
}

type viewDTO struct {
	LocalBookmarks  map[string]refTargetDTO `json:"local_bookmarks"`
	RemoteBookmarks []remoteRefDTO          `json:"remote_bookmarks"`
	Tags            map[string]refTargetDTO `json:"tags"`
	GitRefs         map[string]refTargetDTO `json:"git_refs"`
	GitHead         refTargetDTO            `json:"git_head"`
	WorkingCopies   map[string]string       `json:"working_copies"`
}

func marshalView(v *types.ViewSnapshot) (string, error) {
	dto := viewDTO{
		LocalBookmarks: map[string]refTargetDTO{},
		Tags:           map[string]refTargetDTO{},
		GitRefs:        map[string]refTargetDTO{},
		GitHead:        toDTO(v.GitHead),
		WorkingCopies:  map[string]string{},
	}
	for k, t := range v.LocalBookmarks {
		dto.LocalBookmarks[k] = toDTO(t)
	}
	for k, t := range v.Tags {
		dto.Tags[k] = toDTO(t)
	}
	for k, t := range v.GitRefs {
		dto.GitRefs[k] = toDTO(t)
	}
	for k, id := range v.WorkingCopies {
		dto.WorkingCopies[k] = id.Hex()
	}
	for k, rr := range v.RemoteBookmarks {
		dto.RemoteBookmarks = append(dto.RemoteBookmarks, remoteRefDTO{
			Name: k.Name, Remote: k.Remote, Target: toDTO(rr.Target), Tracked: rr.Tracked(),
		})
	}
	b, err := json.Marshal(dto)
	return string(b), err
}

func unmarshalView(data string) (*types.ViewSnapshot, error) {
	var dto viewDTO
	if err := json.Unmarshal([]byte(data), &dto); err != nil {
		return nil, err
	}
	v := types.NewViewSnapshot()
	for k, t := range dto.LocalBookmarks {
		v.LocalBookmarks[k] = fromDTO(t)
	}
	for k, t := range dto.Tags {
		v.Tags[k] = fromDTO(t)
	}
	for k, t := range dto.GitRefs {
		v.GitRefs[k] = fromDTO(t)
	}
	for k, hex := range dto.WorkingCopies {
		v.WorkingCopies[k] = unhex(hex)
	}
	v.GitHead = fromDTO(dto.GitHead)
	for _, rr := range dto.RemoteBookmarks {
		state := types.RemoteRefNew
		if rr.Tracked {
			state = types.RemoteRefTracked
		}
		v.RemoteBookmarks[types.RemoteBookmarkKey{Name: rr.Name, Remote: rr.Remote}] = types.RemoteRef{
			Target: fromDTO(rr.Target), State: state,
		}
	}
	return v, nil
}
