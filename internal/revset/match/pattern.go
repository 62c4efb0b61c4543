// Package match implements the string-match modifiers shared by the
// parser (pattern-typed function arguments) and the filter predicates
// (§4.1, §4.4): exact, substring(-i), glob(-i), regex.
package match

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/teranos/revset/internal/revset/rerrors"
)

// Kind identifies which modifier produced a StringMatcher.
type Kind int

const (
	Substring Kind = iota
	SubstringI
	Exact
	ExactI
	Glob
	GlobI
	Regex
)

func (k Kind) String() string {
	switch k {
	case Substring:
		return "substring"
	case SubstringI:
		return "substring-i"
	case Exact:
		return "exact"
	case ExactI:
		return "exact-i"
	case Glob:
		return "glob"
	case GlobI:
		return "glob-i"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// StringMatcher is a compiled pattern over a candidate string.
type StringMatcher struct {
	kind  Kind
	raw   string
	re    *regexp.Regexp // for Regex and (compiled-from-glob) Glob/GlobI
}

// Raw returns the pattern text as written by the user, before compilation.
func (m StringMatcher) Raw() string { return m.raw }

// Kind returns which modifier built the matcher.
func (m StringMatcher) Kind() Kind { return m.kind }

// Matches reports whether candidate satisfies the pattern.
func (m StringMatcher) Matches(candidate string) bool {
	switch m.kind {
	case Exact:
		return candidate == m.raw
	case ExactI:
		return strings.EqualFold(candidate, m.raw)
	case Substring:
		return strings.Contains(candidate, m.raw)
	case SubstringI:
		return strings.Contains(strings.ToLower(candidate), strings.ToLower(m.raw))
	case Glob, GlobI, Regex:
		return m.re.MatchString(candidate)
	default:
		return false
	}
}

// CompileDefault compiles pattern as a case-sensitive substring match
// (§4.1's stated default for any bare pattern argument).
func CompileDefault(pattern string) StringMatcher {
	return StringMatcher{kind: Substring, raw: pattern}
}

// Compile compiles pattern under the named modifier
// ("exact"|"exact-i"|"substring"|"substring-i"|"glob"|"glob-i"|"regex").
// An unrecognized modifier or an uncompilable glob/regex yields
// ErrInvalidStringPattern.
func Compile(modifier, pattern string) (StringMatcher, error) {
	switch modifier {
	case "", "substring":
		return StringMatcher{kind: Substring, raw: pattern}, nil
	case "substring-i":
		return StringMatcher{kind: SubstringI, raw: pattern}, nil
	case "exact":
		return StringMatcher{kind: Exact, raw: pattern}, nil
	case "exact-i":
		return StringMatcher{kind: ExactI, raw: pattern}, nil
	case "glob":
		re, err := globToRegexp(pattern, false)
		if err != nil {
			return StringMatcher{}, rerrors.Wrapf(rerrors.ErrInvalidStringPattern, "glob %q: %v", pattern, err)
		}
		return StringMatcher{kind: Glob, raw: pattern, re: re}, nil
	case "glob-i":
		re, err := globToRegexp(pattern, true)
		if err != nil {
			return StringMatcher{}, rerrors.Wrapf(rerrors.ErrInvalidStringPattern, "glob-i %q: %v", pattern, err)
		}
		return StringMatcher{kind: GlobI, raw: pattern, re: re}, nil
	case "regex":
		re, err := regexp.Compile(pattern)
		if err != nil {
			return StringMatcher{}, rerrors.Wrapf(rerrors.ErrInvalidStringPattern, "regex %q: %v", pattern, err)
		}
		return StringMatcher{kind: Regex, raw: pattern, re: re}, nil
	default:
		return StringMatcher{}, rerrors.Wrapf(rerrors.ErrInvalidStringPattern, "unknown string-match modifier %q", modifier)
	}
}

// globToRegexp translates the standard wildcard set (* ? [ ]) into an
// anchored regexp, using filepath.Match's semantics for translation by
// round-tripping through its glob alphabet: we hand-translate rather than
// shell out per character, since we need an anchored regexp for Matches.
func globToRegexp(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	// Validate early using filepath.Match's own parser so obviously broken
	// patterns (e.g. unterminated "[") fail fast with a clear message.
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("^")
	if caseInsensitive {
		sb.WriteString("(?i)")
	}
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			sb.WriteString(".*")
			i++
		case '?':
			sb.WriteString(".")
			i++
		case '[':
			j := i + 1
			if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				sb.WriteString(regexp.QuoteMeta(pattern[i:]))
				i = len(pattern)
				continue
			}
			cls := pattern[i+1 : j]
			cls = strings.Replace(cls, "!", "^", 1)
			sb.WriteString("[" + cls + "]")
			i = j + 1
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
