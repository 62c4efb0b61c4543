package ast

import (
	"github.com/teranos/revset/internal/revset/match"
	"github.com/teranos/revset/internal/revset/rerrors"
)

// modifierKeywords are the string-match/date modifiers recognized before
// a ':' in argument position (§4.1).
var modifierKeywords = map[string]bool{
	"exact": true, "exact-i": true,
	"substring": true, "substring-i": true,
	"glob": true, "glob-i": true,
	"regex": true,
	"after": true, "before": true,
}

// ArgNode is a raw, not-yet-semantically-typed function argument: an
// expression, an integer literal, or a modifier:pattern pair. Each
// builtin's builder (builtins.go) decides how to interpret it.
type ArgNode struct {
	IsInt      bool
	Int        uint64
	IsPattern  bool
	Modifier   string // "" if no modifier keyword was given
	PatternRaw string
	Expr       Expr // set when neither IsInt nor IsPattern
}

// RawArg is one parsed argument, optionally named ("name: value" where
// name is not a recognized modifier keyword).
type RawArg struct {
	Name string // "" if positional
	Node ArgNode
}

func (p *Parser) parseArgList() ([]RawArg, error) {
	var args []RawArg
	tok, err := p.peek(0)
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokRParen {
		return args, nil
	}
	for {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		tok, err := p.peek(0)
		if err != nil {
			return nil, err
		}
		if tok.Kind != TokComma {
			break
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (p *Parser) parseArg() (RawArg, error) {
	tok, err := p.peek(0)
	if err != nil {
		return RawArg{}, err
	}
	if tok.Kind == TokIdent {
		next, err := p.peek(1)
		if err != nil {
			return RawArg{}, err
		}
		if next.Kind == TokColon {
			if modifierKeywords[tok.Text] {
				node, err := p.parseModifierPattern()
				if err != nil {
					return RawArg{}, err
				}
				return RawArg{Node: node}, nil
			}
			// Named argument: name: value
			name := tok.Text
			if _, err := p.advance(); err != nil { // ident
				return RawArg{}, err
			}
			if _, err := p.advance(); err != nil { // ':'
				return RawArg{}, err
			}
			node, err := p.parseArgValue()
			if err != nil {
				return RawArg{}, err
			}
			return RawArg{Name: name, Node: node}, nil
		}
	}
	node, err := p.parseArgValue()
	if err != nil {
		return RawArg{}, err
	}
	return RawArg{Node: node}, nil
}

// parseArgValue parses a value that isn't a named argument: an int, a
// modifier:pattern, or a general expression.
func (p *Parser) parseArgValue() (ArgNode, error) {
	tok, err := p.peek(0)
	if err != nil {
		return ArgNode{}, err
	}
	if tok.Kind == TokIdent {
		next, err := p.peek(1)
		if err != nil {
			return ArgNode{}, err
		}
		if next.Kind == TokColon && modifierKeywords[tok.Text] {
			return p.parseModifierPattern()
		}
	}
	if tok.Kind == TokInt {
		if _, err := p.advance(); err != nil {
			return ArgNode{}, err
		}
		n, ok := parseUint(tok.Text)
		if !ok {
			return ArgNode{}, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: tok.End}, rerrors.Newf("invalid integer literal %q", tok.Text))
		}
		return ArgNode{IsInt: true, Int: n}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return ArgNode{}, err
	}
	return ArgNode{Expr: e}, nil
}

func (p *Parser) parseModifierPattern() (ArgNode, error) {
	modTok, err := p.advance() // ident (modifier keyword)
	if err != nil {
		return ArgNode{}, err
	}
	if _, err := p.advance(); err != nil { // ':'
		return ArgNode{}, err
	}
	tok, err := p.peek(0)
	if err != nil {
		return ArgNode{}, err
	}
	var text string
	switch tok.Kind {
	case TokString, TokIdent:
		if _, err := p.advance(); err != nil {
			return ArgNode{}, err
		}
		text = tok.Text
	default:
		return ArgNode{}, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: tok.End}, rerrors.Newf("expected pattern text after `%s:`", modTok.Text))
	}
	return ArgNode{IsPattern: true, Modifier: modTok.Text, PatternRaw: text}, nil
}

func parseUint(s string) (uint64, bool) {
	var n uint64
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	return n, true
}

// --- helpers consumed by builtins.go ---

// argAsExpr coerces a RawArg's value into an Expr for positional set
// arguments, treating a bare pattern node as a symbol reference (so
// `ancestors(main)` and `ancestors("main")` both work).
func argAsExpr(ctx *ParseContext, a RawArg) (Expr, error) {
	if a.Node.IsInt {
		return nil, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected a revset, found an integer")
	}
	if a.Node.IsPattern {
		return CommitRef{Kind: RefSymbol, Symbol: a.Node.PatternRaw}, nil
	}
	return a.Node.Expr, nil
}

// argAsUint requires an integer literal argument.
func argAsUint(a RawArg) (uint64, error) {
	if !a.Node.IsInt {
		return 0, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected an integer argument")
	}
	return a.Node.Int, nil
}

// argAsPattern coerces a RawArg into a compiled StringMatcher: an explicit
// modifier:pattern, or a bare symbol/identifier expression used as the
// default substring pattern.
func argAsPattern(a RawArg) (match.StringMatcher, error) {
	if a.Node.IsInt {
		return match.StringMatcher{}, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected a string pattern, found an integer")
	}
	if a.Node.IsPattern {
		return match.Compile(a.Node.Modifier, a.Node.PatternRaw)
	}
	if ref, ok := a.Node.Expr.(CommitRef); ok && ref.Kind == RefSymbol {
		return match.CompileDefault(ref.Symbol), nil
	}
	return match.StringMatcher{}, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected a string pattern")
}

// argAsDate requires a modifier:pattern argument whose modifier is
// "after" or "before".
func argAsDate(ctx *ParseContext, a RawArg) (match.DatePattern, error) {
	if !a.Node.IsPattern || (a.Node.Modifier != "after" && a.Node.Modifier != "before") {
		return match.DatePattern{}, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "expected `after:` or `before:` date pattern")
	}
	return match.ParseDatePattern(a.Node.PatternRaw, a.Node.Modifier, ctx.Now)
}
