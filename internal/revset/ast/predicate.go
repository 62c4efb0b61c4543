package ast

import "github.com/teranos/revset/internal/revset/match"

// Predicate is the sealed sum type for filter predicates (§4.4). Unlike
// Expr, a Predicate is never iterated on its own at evaluation time — it
// is always tested against one commit at a time, lazily, by the
// evaluator's filter composition.
type Predicate interface {
	isPredicate()
}

type PredAuthor struct{ Pattern match.StringMatcher }

func (PredAuthor) isPredicate() {}

type PredAuthorName struct{ Pattern match.StringMatcher }

func (PredAuthorName) isPredicate() {}

type PredAuthorEmail struct{ Pattern match.StringMatcher }

func (PredAuthorEmail) isPredicate() {}

type PredCommitter struct{ Pattern match.StringMatcher }

func (PredCommitter) isPredicate() {}

type PredCommitterName struct{ Pattern match.StringMatcher }

func (PredCommitterName) isPredicate() {}

type PredCommitterEmail struct{ Pattern match.StringMatcher }

func (PredCommitterEmail) isPredicate() {}

type PredDescription struct{ Pattern match.StringMatcher }

func (PredDescription) isPredicate() {}

type PredSubject struct{ Pattern match.StringMatcher }

func (PredSubject) isPredicate() {}

type PredAuthorDate struct{ Date match.DatePattern }

func (PredAuthorDate) isPredicate() {}

type PredCommitterDate struct{ Date match.DatePattern }

func (PredCommitterDate) isPredicate() {}

// PredMine is `mine`: equivalent to author_email(exact-i: <user email>),
// resolved once at parse time against the configured user email.
type PredMine struct{ UserEmail string }

func (PredMine) isPredicate() {}

type PredSigned struct{}

func (PredSigned) isPredicate() {}

// PredFiles matches commits whose tree differs from the auto-merged
// parent in a path matching any of Patterns.
type PredFiles struct{ Patterns []match.StringMatcher }

func (PredFiles) isPredicate() {}

// PredDiffContains matches commits where the diff against the
// auto-merged parent contains a line matching Text within paths matching
// File (File may be the zero value meaning "match all paths").
type PredDiffContains struct {
	Text    match.StringMatcher
	File    match.StringMatcher
	HasFile bool
}

func (PredDiffContains) isPredicate() {}

type PredConflicts struct{}

func (PredConflicts) isPredicate() {}

// PredNot negates a predicate; used to build `empty` as ~files(all-paths)
// and for general predicate algebra.
type PredNot struct{ Inner Predicate }

func (PredNot) isPredicate() {}

// PredAnd / PredOr combine predicates (used when unions/intersections of
// Filter nodes are normalized into a single combined predicate, §4.3).
type PredAnd struct{ A, B Predicate }

func (PredAnd) isPredicate() {}

type PredOr struct{ A, B Predicate }

func (PredOr) isPredicate() {}
