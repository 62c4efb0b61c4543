package ast

import (
	"github.com/teranos/revset/internal/revset/match"
	"github.com/teranos/revset/internal/revset/rerrors"
)

// noArgBuiltins are identifiers that resolve to a fixed Expr, written
// either bare or with an empty argument list, e.g. `all`/`all()`,
// `merges`, `mine()`.
var noArgBuiltins = map[string]func(ctx *ParseContext) Expr{
	"all":           func(*ParseContext) Expr { return All{} },
	"none":          func(*ParseContext) Expr { return None{} },
	"root":          func(*ParseContext) Expr { return Root{} },
	"visible_heads":  func(*ParseContext) Expr { return VisibleHeads{} },
	"working_copies": func(*ParseContext) Expr { return CommitRef{Kind: RefWorkingCopiesAll} },
	"merges":        func(*ParseContext) Expr { return Merges{} },
	"git_refs":      func(*ParseContext) Expr { return CommitRef{Kind: RefGitRefs} },
	"git_head":      func(*ParseContext) Expr { return CommitRef{Kind: RefGitHead} },
	"bookmarks":     func(*ParseContext) Expr { return CommitRef{Kind: RefLocalBookmarks, NamePattern: matchAll()} },
	"tags":          func(*ParseContext) Expr { return CommitRef{Kind: RefTags, NamePattern: matchAll()} },
	"remote_bookmarks": func(*ParseContext) Expr {
		return CommitRef{Kind: RefRemoteBookmarks, NamePattern: matchAll()}
	},
	"tracked_remote_bookmarks": func(*ParseContext) Expr {
		t := true
		return CommitRef{Kind: RefRemoteBookmarks, NamePattern: matchAll(), Tracked: &t}
	},
	"untracked_remote_bookmarks": func(*ParseContext) Expr {
		f := false
		return CommitRef{Kind: RefRemoteBookmarks, NamePattern: matchAll(), Tracked: &f}
	},
	"mine":      func(ctx *ParseContext) Expr { return Filter{Predicate: PredMine{UserEmail: ctx.UserEmail}} },
	"signed":    func(*ParseContext) Expr { return Filter{Predicate: PredSigned{}} },
	"conflicts": func(*ParseContext) Expr { return Filter{Predicate: PredConflicts{}} },
	"empty": func(*ParseContext) Expr {
		return Filter{Predicate: PredNot{Inner: PredFiles{Patterns: []match.StringMatcher{matchAll()}}}}
	},
}

func matchAll() match.StringMatcher {
	m, _ := match.Compile("glob", "*")
	return m
}

// builtinFuncs are named functions that require a parenthesized argument
// list (possibly empty).
var builtinFuncs = map[string]func(ctx *ParseContext, args []RawArg) (Expr, error){
	"heads":  func(_ *ParseContext, a []RawArg) (Expr, error) { return unarySet(a, func(e Expr) Expr { return Heads{Set: e} }) },
	"roots":  func(_ *ParseContext, a []RawArg) (Expr, error) { return unarySet(a, func(e Expr) Expr { return Roots{Set: e} }) },
	"parents": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		return unarySet(a, func(e Expr) Expr { return Ancestors{Heads: e, Depth: 1} })
	},
	"children": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		return unarySet(a, func(e Expr) Expr { return Descendants{Roots: e, Depth: 1} })
	},
	"ancestors": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		return setWithOptionalDepth(ctx, a, func(e Expr, d uint64) Expr { return Ancestors{Heads: e, Depth: d} })
	},
	"descendants": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		return setWithOptionalDepth(ctx, a, func(e Expr, d uint64) Expr { return Descendants{Roots: e, Depth: d} })
	},
	"connected": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		return unarySet(a, func(e Expr) Expr { return Reachable{Sources: e, Domain: All{}} })
	},
	"reachable": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		if len(a) != 2 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "reachable() takes exactly 2 arguments, got %d", len(a))
		}
		src, err := argAsExpr(ctx, a[0])
		if err != nil {
			return nil, err
		}
		domain, err := argAsExpr(ctx, a[1])
		if err != nil {
			return nil, err
		}
		return Reachable{Sources: src, Domain: domain}, nil
	},
	"fork_point": func(_ *ParseContext, a []RawArg) (Expr, error) {
		return unarySet(a, func(e Expr) Expr { return ForkPoint{Set: e} })
	},
	"merges": func(_ *ParseContext, a []RawArg) (Expr, error) {
		if len(a) != 0 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "merges() takes no arguments")
		}
		return Merges{}, nil
	},
	"latest": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		if len(a) < 1 || len(a) > 2 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "latest() takes 1 or 2 arguments, got %d", len(a))
		}
		set, err := argAsExpr(ctx, a[0])
		if err != nil {
			return nil, err
		}
		count := uint64(1)
		if len(a) == 2 {
			count, err = argAsUint(a[1])
			if err != nil {
				return nil, err
			}
		}
		return Latest{Set: set, Count: count}, nil
	},
	"bookmarks": func(_ *ParseContext, a []RawArg) (Expr, error) {
		if len(a) > 1 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "bookmarks() takes at most 1 argument")
		}
		pat := matchAll()
		if len(a) == 1 {
			p, err := argAsPattern(a[0])
			if err != nil {
				return nil, err
			}
			pat = p
		}
		return CommitRef{Kind: RefLocalBookmarks, NamePattern: pat}, nil
	},
	"tags": func(_ *ParseContext, a []RawArg) (Expr, error) {
		if len(a) > 1 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "tags() takes at most 1 argument")
		}
		pat := matchAll()
		if len(a) == 1 {
			p, err := argAsPattern(a[0])
			if err != nil {
				return nil, err
			}
			pat = p
		}
		return CommitRef{Kind: RefTags, NamePattern: pat}, nil
	},
	"remote_bookmarks": func(_ *ParseContext, a []RawArg) (Expr, error) {
		if len(a) > 2 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "remote_bookmarks() takes at most 2 arguments")
		}
		namePat := matchAll()
		ref := CommitRef{Kind: RefRemoteBookmarks}
		if len(a) >= 1 {
			p, err := argAsPattern(a[0])
			if err != nil {
				return nil, err
			}
			namePat = p
		}
		ref.NamePattern = namePat
		if len(a) == 2 {
			p, err := argAsPattern(a[1])
			if err != nil {
				return nil, err
			}
			ref.RemotePattern = p
			ref.HasRemotePat = true
		}
		return ref, nil
	},
	"description":     predicateString(func(m match.StringMatcher) Predicate { return PredDescription{Pattern: m} }),
	"subject":         predicateString(func(m match.StringMatcher) Predicate { return PredSubject{Pattern: m} }),
	"author":          predicateString(func(m match.StringMatcher) Predicate { return PredAuthor{Pattern: m} }),
	"author_name":     predicateString(func(m match.StringMatcher) Predicate { return PredAuthorName{Pattern: m} }),
	"author_email":    predicateString(func(m match.StringMatcher) Predicate { return PredAuthorEmail{Pattern: m} }),
	"committer":       predicateString(func(m match.StringMatcher) Predicate { return PredCommitter{Pattern: m} }),
	"committer_name":  predicateString(func(m match.StringMatcher) Predicate { return PredCommitterName{Pattern: m} }),
	"committer_email": predicateString(func(m match.StringMatcher) Predicate { return PredCommitterEmail{Pattern: m} }),
	"author_date": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		return predicateDate(ctx, a, func(d match.DatePattern) Predicate { return PredAuthorDate{Date: d} })
	},
	"committer_date": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		return predicateDate(ctx, a, func(d match.DatePattern) Predicate { return PredCommitterDate{Date: d} })
	},
	"files": func(_ *ParseContext, a []RawArg) (Expr, error) {
		if len(a) == 0 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "files() takes at least 1 argument")
		}
		pats := make([]match.StringMatcher, 0, len(a))
		for _, arg := range a {
			p, err := argAsPattern(arg)
			if err != nil {
				return nil, err
			}
			pats = append(pats, p)
		}
		return Filter{Predicate: PredFiles{Patterns: pats}}, nil
	},
	"diff_contains": func(_ *ParseContext, a []RawArg) (Expr, error) {
		if len(a) < 1 || len(a) > 2 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "diff_contains() takes 1 or 2 arguments")
		}
		text, err := argAsPattern(a[0])
		if err != nil {
			return nil, err
		}
		pred := PredDiffContains{Text: text}
		if len(a) == 2 {
			file, err := argAsPattern(a[1])
			if err != nil {
				return nil, err
			}
			pred.File = file
			pred.HasFile = true
		}
		return Filter{Predicate: pred}, nil
	},
	"conflicts": func(_ *ParseContext, a []RawArg) (Expr, error) {
		if len(a) != 0 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "conflicts() takes no arguments")
		}
		return Filter{Predicate: PredConflicts{}}, nil
	},
	"coalesce": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		if len(a) == 0 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "coalesce() takes at least 1 argument")
		}
		children := make([]Expr, 0, len(a))
		for _, arg := range a {
			e, err := argAsExpr(ctx, arg)
			if err != nil {
				return nil, err
			}
			children = append(children, e)
		}
		return Coalesce{Children: children}, nil
	},
	"present": func(ctx *ParseContext, a []RawArg) (Expr, error) {
		return unarySetCtx(ctx, a, func(e Expr) Expr { return Present{Inner: e} })
	},
	// at_operation is special-cased in parseIdentOrCall (its first
	// argument is an operation reference, not a revset expression) and
	// never reaches this table.
}

func unarySet(a []RawArg, build func(Expr) Expr) (Expr, error) {
	return unarySetCtx(nil, a, build)
}

func unarySetCtx(ctx *ParseContext, a []RawArg, build func(Expr) Expr) (Expr, error) {
	if len(a) != 1 {
		return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected exactly 1 argument, got %d", len(a))
	}
	e, err := argAsExpr(ctx, a[0])
	if err != nil {
		return nil, err
	}
	return build(e), nil
}

func setWithOptionalDepth(ctx *ParseContext, a []RawArg, build func(Expr, uint64) Expr) (Expr, error) {
	if len(a) < 1 || len(a) > 2 {
		return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected 1 or 2 arguments, got %d", len(a))
	}
	e, err := argAsExpr(ctx, a[0])
	if err != nil {
		return nil, err
	}
	depth := uint64(NoGenerationLimit)
	if len(a) == 2 {
		depth, err = argAsUint(a[1])
		if err != nil {
			return nil, err
		}
	}
	return build(e, depth), nil
}

func predicateString(build func(match.StringMatcher) Predicate) func(*ParseContext, []RawArg) (Expr, error) {
	return func(_ *ParseContext, a []RawArg) (Expr, error) {
		if len(a) != 1 {
			return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected exactly 1 pattern argument, got %d", len(a))
		}
		p, err := argAsPattern(a[0])
		if err != nil {
			return nil, err
		}
		return Filter{Predicate: build(p)}, nil
	}
}

func predicateDate(ctx *ParseContext, a []RawArg, build func(match.DatePattern) Predicate) (Expr, error) {
	if len(a) != 1 {
		return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected exactly 1 date-pattern argument, got %d", len(a))
	}
	d, err := argAsDate(ctx, a[0])
	if err != nil {
		return nil, err
	}
	return Filter{Predicate: build(d)}, nil
}

