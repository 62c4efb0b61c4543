// Package ast defines the revset expression tree (§3's "Expression
// tree") together with the lexer, parser, alias expander and algebraic
// normalizer that build it (§4.1). Expressions are immutable, shareable
// values; nothing here touches a repository — that happens in resolve
// and eval.
package ast

import (
	"math"

	"github.com/teranos/revset/internal/revset/match"
	"github.com/teranos/revset/internal/revset/types"
)

// Expr is the sealed sum type for expression-tree nodes. Each concrete
// type below implements it with an unexported marker method, the
// idiomatic Go stand-in for the tagged union described in §3/§9.
type Expr interface {
	isExpr()
}

// GenerationRange bounds a generation (distance) count. End is exclusive;
// use NoGenerationLimit for "no upper bound".
type GenerationRange struct {
	Start uint64
	End   uint64 // exclusive; math.MaxUint64 means unbounded
}

// NoGenerationLimit is the conventional "no bound" sentinel for
// GenerationRange.End and for Ancestors/Descendants depth.
const NoGenerationLimit = math.MaxUint64

// AllGenerations is the default, unrestricted generation range.
var AllGenerations = GenerationRange{Start: 0, End: NoGenerationLimit}

// --- leaf set expressions ---

type None struct{}

func (None) isExpr() {}

type All struct{}

func (All) isExpr() {}

type VisibleHeads struct{}

func (VisibleHeads) isExpr() {}

type Root struct{}

func (Root) isExpr() {}

// Commits is a literal, already-resolved set of commit ids (used for
// program-constructed expressions and as the output of symbol
// resolution).
type Commits struct {
	Ids []types.CommitId
}

func (Commits) isExpr() {}

// --- symbol references, resolved away by the symbol resolver (§4.2) ---

// CommitRefKind tags which CommitRef subtype is populated.
type CommitRefKind int

const (
	RefWorkingCopy CommitRefKind = iota
	RefWorkingCopiesAll
	RefSymbol
	RefRemoteBookmarks
	RefLocalBookmarks
	RefTags
	RefGitRefs
	RefGitHead
)

// CommitRef is an unresolved symbolic reference; the symbol resolver
// (§4.2) replaces every CommitRef node with a Commits node.
type CommitRef struct {
	Kind CommitRefKind

	// RefWorkingCopy
	Workspace string

	// RefSymbol
	Symbol string

	// RefRemoteBookmarks / RefLocalBookmarks / RefTags
	NamePattern   match.StringMatcher
	RemotePattern match.StringMatcher // RefRemoteBookmarks only
	HasRemotePat  bool
	Tracked       *bool // RefRemoteBookmarks only; nil = don't filter by tracking
}

func (CommitRef) isExpr() {}

// --- graph algebra ---

type Ancestors struct {
	Heads Expr
	Depth uint64 // NoGenerationLimit = unbounded
}

func (Ancestors) isExpr() {}

type Descendants struct {
	Roots Expr
	Depth uint64
}

func (Descendants) isExpr() {}

// Range is roots..heads: ancestors of heads, minus ancestors of roots,
// filtered to Generation distance from the nearest head.
type Range struct {
	Roots      Expr
	Heads      Expr
	Generation GenerationRange
}

func (Range) isExpr() {}

// DagRange is roots::heads: commits descending from some root AND
// ancestor of some head.
type DagRange struct {
	Roots Expr
	Heads Expr
}

func (DagRange) isExpr() {}

type Reachable struct {
	Sources Expr
	Domain  Expr
}

func (Reachable) isExpr() {}

type Heads struct{ Set Expr }

func (Heads) isExpr() {}

type Roots struct{ Set Expr }

func (Roots) isExpr() {}

type ForkPoint struct{ Set Expr }

func (ForkPoint) isExpr() {}

type Merges struct{}

func (Merges) isExpr() {}

type Latest struct {
	Set   Expr
	Count uint64
}

func (Latest) isExpr() {}

// --- filters ---

// Filter wraps a predicate as a top-level or intersectable expression
// node (§4.3's "Filter composition").
type Filter struct {
	Predicate Predicate
}

func (Filter) isExpr() {}

// AsFilter adapts a set expression into a predicate (membership test),
// the dual of Filter.
type AsFilter struct{ Set Expr }

func (AsFilter) isExpr() {}

// --- operation log scoping ---

type AtOperation struct {
	Op    string // symbolic operation reference: "@", "@-", "@--", prefix, ...
	Inner Expr
}

func (AtOperation) isExpr() {}

// --- error recovery and combinators ---

type Present struct{ Inner Expr }

func (Present) isExpr() {}

type Union struct{ A, B Expr }

func (Union) isExpr() {}

type Intersection struct{ A, B Expr }

func (Intersection) isExpr() {}

type Difference struct{ A, B Expr }

func (Difference) isExpr() {}

type Coalesce struct{ Children []Expr }

func (Coalesce) isExpr() {}
