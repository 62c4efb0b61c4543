// Package rerrors is the revset engine's error taxonomy (§7). It builds on
// github.com/cockroachdb/errors the same way the teacher's own errors
// package (QNTX's `errors`) re-exports cockroachdb/errors for stack
// traces, hints and safe details, rather than reaching for the stdlib
// errors/fmt.Errorf pair.
package rerrors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Re-exported constructors so callers in this module never need to import
// cockroachdb/errors directly.
var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
	Is    = crdb.Is
	As    = crdb.As
)

// Sentinel errors for the §7 taxonomy. errors.Is(err, ErrNoSuchRevision)
// works against any error built via the constructors below because they
// wrap these sentinels with crdb.WithStack.
var (
	// ErrEmptyString: EmptyString — an empty symbol was given to resolve.
	ErrEmptyString = crdb.New("revset: empty string is not a valid symbol")
	// ErrNoSuchRevision: NoSuchRevision{name, candidates}.
	ErrNoSuchRevision = crdb.New("revset: no such revision")
	// ErrWorkspaceMissingWorkingCopy: WorkspaceMissingWorkingCopy{name}.
	ErrWorkspaceMissingWorkingCopy = crdb.New("revset: workspace has no working-copy commit")
	// ErrAmbiguousCommitIdPrefix: AmbiguousCommitIdPrefix{prefix}.
	ErrAmbiguousCommitIdPrefix = crdb.New("revset: ambiguous commit id prefix")
	// ErrAmbiguousChangeIdPrefix: AmbiguousChangeIdPrefix{prefix}.
	ErrAmbiguousChangeIdPrefix = crdb.New("revset: ambiguous change id prefix")
	// ErrNoSuchOperation: NoSuchOperation{op}.
	ErrNoSuchOperation = crdb.New("revset: no such operation")
	// ErrBackend: Backend(source) — an evaluation-time I/O failure.
	ErrBackend = crdb.New("revset: backend error")
	// ErrFilesystem: Filesystem(source).
	ErrFilesystem = crdb.New("revset: filesystem error")
	// ErrUndefinedAlias.
	ErrUndefinedAlias = crdb.New("revset: undefined alias")
	// ErrInvalidFunctionArguments.
	ErrInvalidFunctionArguments = crdb.New("revset: invalid function arguments")
	// ErrInvalidStringPattern.
	ErrInvalidStringPattern = crdb.New("revset: invalid string pattern")
)

// Span locates a parse error in the original query text.
type Span struct {
	Start, End int
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// ParseError is `Parse{span, reason}` from §7. reason is either a plain
// message (syntax errors from the lexer/parser) or an error wrapping
// ErrInvalidStringPattern / ErrUndefinedAlias / ErrInvalidFunctionArguments.
type ParseError struct {
	Span   Span
	Reason error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("revset: parse error at %s: %v", e.Span, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Reason }

// NewParseError builds a ParseError, attaching the offending span as a
// safe detail for diagnostics rendering.
func NewParseError(span Span, reason error) *ParseError {
	return &ParseError{Span: span, Reason: crdb.WithSafeDetails(reason, "span=%s", span)}
}

// NoSuchRevisionError carries the candidate suggestion list described in
// §4.2 step 6 and §7.
type NoSuchRevisionError struct {
	Name       string
	Candidates []string
}

func (e *NoSuchRevisionError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("revset: no such revision: %s", e.Name)
	}
	return fmt.Sprintf("revset: no such revision: %s (did you mean one of: %v?)", e.Name, e.Candidates)
}

func (e *NoSuchRevisionError) Unwrap() error { return ErrNoSuchRevision }

// NewNoSuchRevision builds a NoSuchRevisionError wrapped with a stack
// trace and, when present, a user-facing hint listing the candidates.
func NewNoSuchRevision(name string, candidates []string) error {
	err := &NoSuchRevisionError{Name: name, Candidates: candidates}
	wrapped := crdb.WithStack(err)
	if len(candidates) > 0 {
		wrapped = crdb.WithHintf(wrapped, "did you mean: %v?", candidates)
	}
	return wrapped
}

// AmbiguousPrefixError reports an ambiguous commit-id or change-id prefix.
// Kind is either "commit" or "change".
type AmbiguousPrefixError struct {
	Kind   string
	Prefix string
}

func (e *AmbiguousPrefixError) Error() string {
	return fmt.Sprintf("revset: ambiguous %s id prefix: %s", e.Kind, e.Prefix)
}

func (e *AmbiguousPrefixError) Unwrap() error {
	if e.Kind == "change" {
		return ErrAmbiguousChangeIdPrefix
	}
	return ErrAmbiguousCommitIdPrefix
}

// NewAmbiguousCommitIdPrefix builds the commit-id flavor.
func NewAmbiguousCommitIdPrefix(prefix string) error {
	return crdb.WithStack(&AmbiguousPrefixError{Kind: "commit", Prefix: prefix})
}

// NewAmbiguousChangeIdPrefix builds the change-id flavor.
func NewAmbiguousChangeIdPrefix(prefix string) error {
	return crdb.WithStack(&AmbiguousPrefixError{Kind: "change", Prefix: prefix})
}

// WorkspaceMissingWorkingCopyError reports §4.2 step 1's failure.
type WorkspaceMissingWorkingCopyError struct {
	Name string
}

func (e *WorkspaceMissingWorkingCopyError) Error() string {
	return fmt.Sprintf("revset: workspace %q has no working-copy commit", e.Name)
}

func (e *WorkspaceMissingWorkingCopyError) Unwrap() error { return ErrWorkspaceMissingWorkingCopy }

// NewWorkspaceMissingWorkingCopy builds the error for workspace name.
func NewWorkspaceMissingWorkingCopy(name string) error {
	return crdb.WithStack(&WorkspaceMissingWorkingCopyError{Name: name})
}

// NoSuchOperationError reports an unresolvable at_operation(...) symbol.
type NoSuchOperationError struct {
	Op string
}

func (e *NoSuchOperationError) Error() string {
	return fmt.Sprintf("revset: no such operation: %s", e.Op)
}

func (e *NoSuchOperationError) Unwrap() error { return ErrNoSuchOperation }

// NewNoSuchOperation builds the error for operation symbol op.
func NewNoSuchOperation(op string) error {
	return crdb.WithStack(&NoSuchOperationError{Op: op})
}

// Recoverable reports whether present(...) should catch err and yield the
// empty set rather than propagate it. Only NoSuchRevision and
// WorkspaceMissingWorkingCopy are recoverable (§4.3, §7); ambiguity and
// backend errors are never silently swallowed (§9 design note).
func Recoverable(err error) bool {
	return crdb.Is(err, ErrNoSuchRevision) || crdb.Is(err, ErrWorkspaceMissingWorkingCopy)
}
