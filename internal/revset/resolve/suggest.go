package resolve

import (
	"sort"
	"strings"

	"github.com/teranos/revset/internal/revset/types"
)

// candidateName is one definable name in the view, used to build the
// missing-revision suggestion list (§4.2 step 6).
type candidateName struct {
	name       string
	targetKey  string
	isRemote   bool
	isConflict bool
}

// suggestions returns up to MaxSuggestions names close to name by
// case-insensitive edit distance, deduplicated by target except remote
// bookmarks (which may diverge from a same-named local bookmark) and
// conflicted targets (whose "sameness" is ambiguous by construction) are
// never suppressed, per §4.2 step 6 / §7.
func (r *Resolver) suggestions(name string) []string {
	all := r.allCandidateNames()

	seenTarget := map[string]bool{}
	var kept []candidateName
	for _, c := range all {
		if c.isRemote || c.isConflict {
			kept = append(kept, c)
			continue
		}
		if seenTarget[c.targetKey] {
			continue
		}
		seenTarget[c.targetKey] = true
		kept = append(kept, c)
	}

	type scored struct {
		name string
		dist int
	}
	lname := strings.ToLower(name)
	var scoredList []scored
	for _, c := range kept {
		d := levenshtein(lname, strings.ToLower(c.name))
		scoredList = append(scoredList, scored{c.name, d})
	}
	sort.SliceStable(scoredList, func(i, j int) bool {
		if scoredList[i].dist != scoredList[j].dist {
			return scoredList[i].dist < scoredList[j].dist
		}
		return scoredList[i].name < scoredList[j].name
	})

	var out []string
	for _, s := range scoredList {
		if len(out) >= MaxSuggestions {
			break
		}
		out = append(out, s.name)
	}
	return out
}

func (r *Resolver) allCandidateNames() []candidateName {
	var out []candidateName
	for name, t := range r.View.LocalBookmarks {
		out = append(out, candidateName{name: name, targetKey: targetKey(t), isConflict: t.IsConflict()})
	}
	for name, t := range r.View.Tags {
		out = append(out, candidateName{name: name, targetKey: targetKey(t), isConflict: t.IsConflict()})
	}
	for k, rr := range r.View.RemoteBookmarks {
		if k.Remote == types.GitTrackingRemote {
			continue
		}
		out = append(out, candidateName{
			name:       k.Name + "@" + k.Remote,
			targetKey:  targetKey(rr.Target),
			isRemote:   true,
			isConflict: rr.Target.IsConflict(),
		})
	}
	for path := range r.View.GitRefs {
		out = append(out, candidateName{name: path, targetKey: targetKey(r.View.GitRefs[path])})
	}
	return out
}

func targetKey(t types.RefTarget) string {
	var sb strings.Builder
	for _, id := range t.AddedIds() {
		sb.WriteString(id.Hex())
		sb.WriteByte(',')
	}
	return sb.String()
}

// levenshtein is a standard-library edit-distance implementation: no
// example repo carries a fuzzy-matching dependency usable for a short
// suggestion list (the pack's qntx-fuzzy plugin is a heavyweight external
// WASM/Rust matcher meant for full-text search, not a good fit here).
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
