package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_UnionWithNoneCollapses(t *testing.T) {
	x := CommitRef{Kind: RefSymbol, Symbol: "x"}
	assert.Equal(t, x, Normalize(Union{A: x, B: None{}}))
	assert.Equal(t, x, Normalize(Union{A: None{}, B: x}))
}

func TestNormalize_IntersectionWithAllCollapses(t *testing.T) {
	x := CommitRef{Kind: RefSymbol, Symbol: "x"}
	assert.Equal(t, x, Normalize(Intersection{A: x, B: All{}}))
	assert.Equal(t, x, Normalize(Intersection{A: All{}, B: x}))
}

func TestNormalize_SelfDifferenceIsNone(t *testing.T) {
	x := CommitRef{Kind: RefSymbol, Symbol: "x"}
	assert.Equal(t, None{}, Normalize(Difference{A: x, B: x}))
}

func TestNormalize_DoubleNegationCancels(t *testing.T) {
	x := CommitRef{Kind: RefSymbol, Symbol: "x"}
	// ~~x == Difference{All, Difference{All, x}} == x
	e := Difference{A: All{}, B: Difference{A: All{}, B: x}}
	assert.Equal(t, x, Normalize(e))
}

func TestNormalize_IdenticalUnionAndIntersectionCollapse(t *testing.T) {
	x := CommitRef{Kind: RefSymbol, Symbol: "x"}
	assert.Equal(t, x, Normalize(Union{A: x, B: x}))
	assert.Equal(t, x, Normalize(Intersection{A: x, B: x}))
}

func TestNormalize_FusesNestedAncestorsDepth(t *testing.T) {
	x := CommitRef{Kind: RefSymbol, Symbol: "x"}
	e := Ancestors{Heads: Ancestors{Heads: x, Depth: 2}, Depth: 3}
	got := Normalize(e).(Ancestors)
	assert.Equal(t, uint64(5), got.Depth)
	assert.Equal(t, x, got.Heads)
}

func TestNormalize_UnboundedDepthAbsorbs(t *testing.T) {
	x := CommitRef{Kind: RefSymbol, Symbol: "x"}
	e := Ancestors{Heads: Ancestors{Heads: x, Depth: NoGenerationLimit}, Depth: 3}
	got := Normalize(e).(Ancestors)
	assert.Equal(t, NoGenerationLimit, got.Depth)
}

func TestNormalize_RecursesIntoChildren(t *testing.T) {
	x := CommitRef{Kind: RefSymbol, Symbol: "x"}
	e := Heads{Set: Union{A: x, B: None{}}}
	got, ok := Normalize(e).(Heads)
	require.True(t, ok)
	assert.Equal(t, x, got.Set)
}
