package ast

import "reflect"

// Normalize applies the conservative algebraic identities described in
// §4.1: x|none=x, x&all=x, ~~x=x, x~x=∅, x|x=x, x&x=x, plus depth fusion
// for nested Ancestors/Descendants. It never changes the set of commits
// an expression denotes (§8's algebra invariants), only its shape, and it
// deliberately stops short of aggressive rewriting that could disturb
// order semantics (§4.3's ordering contract).
func Normalize(e Expr) Expr {
	switch n := e.(type) {
	case Union:
		a, b := Normalize(n.A), Normalize(n.B)
		if isNone(a) {
			return b
		}
		if isNone(b) {
			return a
		}
		if exprEqual(a, b) {
			return a
		}
		return Union{A: a, B: b}

	case Intersection:
		a, b := Normalize(n.A), Normalize(n.B)
		if isAll(a) {
			return b
		}
		if isAll(b) {
			return a
		}
		if exprEqual(a, b) {
			return a
		}
		return Intersection{A: a, B: b}

	case Difference:
		a, b := Normalize(n.A), Normalize(n.B)
		if isNone(b) {
			return a
		}
		if exprEqual(a, b) {
			return None{}
		}
		// ~~x: Difference{All, Difference{All, x}} => x
		if isAll(a) {
			if inner, ok := b.(Difference); ok && isAll(inner.A) {
				return inner.B
			}
		}
		return Difference{A: a, B: b}

	case Ancestors:
		heads := Normalize(n.Heads)
		if inner, ok := heads.(Ancestors); ok {
			return Ancestors{Heads: inner.Heads, Depth: addDepth(n.Depth, inner.Depth)}
		}
		return Ancestors{Heads: heads, Depth: n.Depth}

	case Descendants:
		roots := Normalize(n.Roots)
		if inner, ok := roots.(Descendants); ok {
			return Descendants{Roots: inner.Roots, Depth: addDepth(n.Depth, inner.Depth)}
		}
		return Descendants{Roots: roots, Depth: n.Depth}

	case Range:
		return Range{Roots: Normalize(n.Roots), Heads: Normalize(n.Heads), Generation: n.Generation}
	case DagRange:
		return DagRange{Roots: Normalize(n.Roots), Heads: Normalize(n.Heads)}
	case Reachable:
		return Reachable{Sources: Normalize(n.Sources), Domain: Normalize(n.Domain)}
	case Heads:
		return Heads{Set: Normalize(n.Set)}
	case Roots:
		return Roots{Set: Normalize(n.Set)}
	case ForkPoint:
		return ForkPoint{Set: Normalize(n.Set)}
	case Latest:
		return Latest{Set: Normalize(n.Set), Count: n.Count}
	case AsFilter:
		return AsFilter{Set: Normalize(n.Set)}
	case AtOperation:
		return AtOperation{Op: n.Op, Inner: Normalize(n.Inner)}
	case Present:
		return Present{Inner: Normalize(n.Inner)}
	case Coalesce:
		children := make([]Expr, len(n.Children))
		for i, c := range n.Children {
			children[i] = Normalize(c)
		}
		return Coalesce{Children: children}
	default:
		return e
	}
}

func isNone(e Expr) bool { _, ok := e.(None); return ok }
func isAll(e Expr) bool  { _, ok := e.(All); return ok }

func addDepth(a, b uint64) uint64 {
	if a == NoGenerationLimit || b == NoGenerationLimit {
		return NoGenerationLimit
	}
	sum := a + b
	if sum < a { // overflow
		return NoGenerationLimit
	}
	return sum
}

func exprEqual(a, b Expr) bool {
	return reflect.DeepEqual(a, b)
}
