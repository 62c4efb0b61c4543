package ast

import (
	"github.com/teranos/revset/internal/revset/rerrors"
)

// Parser builds an Expr tree from revset source text (§4.1's grammar).
type Parser struct {
	lex  *Lexer
	ctx  *ParseContext
	buf  []Token // lookahead buffer, up to 2 tokens
}

// Parse parses src to completion under ctx, expanding aliases as it goes.
func Parse(src string, ctx *ParseContext) (Expr, error) {
	if ctx == nil {
		ctx = NewParseContext()
	}
	p := &Parser{lex: NewLexer(src), ctx: ctx}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek(0)
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokEOF {
		return nil, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: tok.End}, rerrors.Newf("unexpected trailing input %q", tok.Text))
	}
	return expr, nil
}

func (p *Parser) peek(n int) (Token, error) {
	for len(p.buf) <= n {
		tok, err := p.lex.Next()
		if err != nil {
			return Token{}, err
		}
		p.buf = append(p.buf, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	if n < len(p.buf) {
		return p.buf[n], nil
	}
	return p.buf[len(p.buf)-1], nil // repeated EOF
}

func (p *Parser) advance() (Token, error) {
	tok, err := p.peek(0)
	if err != nil {
		return Token{}, err
	}
	if len(p.buf) > 0 {
		p.buf = p.buf[1:]
	}
	return tok, nil
}

func (p *Parser) expect(k TokenKind, what string) (Token, error) {
	tok, err := p.peek(0)
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != k {
		return Token{}, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: tok.End}, rerrors.Newf("expected %s", what))
	}
	return p.advance()
}

// --- operator-precedence grammar, lowest to highest ---

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseUnion()
}

func (p *Parser) parseUnion() (Expr, error) {
	left, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek(0)
		if err != nil {
			return nil, err
		}
		if tok.Kind != TokPipe {
			return left, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		left = Union{A: left, B: right}
	}
}

func (p *Parser) parseIntersection() (Expr, error) {
	left, err := p.parseUnaryDifference()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek(0)
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case TokAmp:
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseUnaryDifference()
			if err != nil {
				return nil, err
			}
			left = Intersection{A: left, B: right}
		case TokTilde:
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseUnaryDifference()
			if err != nil {
				return nil, err
			}
			left = Difference{A: left, B: right}
		default:
			return left, nil
		}
	}
}

// parseUnaryDifference handles a leading unary '~', which means
// "all() minus operand", binding tighter than binary |/&/~.
func (p *Parser) parseUnaryDifference() (Expr, error) {
	tok, err := p.peek(0)
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokTilde {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnaryDifference()
		if err != nil {
			return nil, err
		}
		return Difference{A: All{}, B: operand}, nil
	}
	return p.parseRange()
}

func canStartAtom(k TokenKind) bool {
	switch k {
	case TokIdent, TokRemoteSymbol, TokString, TokAt, TokLParen:
		return true
	default:
		return false
	}
}

func (p *Parser) parseRange() (Expr, error) {
	tok, err := p.peek(0)
	if err != nil {
		return nil, err
	}

	// Prefix forms: "..X" and "::X" default the root side.
	if tok.Kind == TokDotDot {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		heads, err := p.optionalPostfix(VisibleHeads{})
		if err != nil {
			return nil, err
		}
		return Range{Roots: Root{}, Heads: heads, Generation: AllGenerations}, nil
	}
	if tok.Kind == TokColonColon {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		heads, err := p.optionalPostfix(VisibleHeads{})
		if err != nil {
			return nil, err
		}
		return DagRange{Roots: Root{}, Heads: heads}, nil
	}

	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	tok, err = p.peek(0)
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TokDotDot:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		heads, err := p.optionalPostfix(VisibleHeads{})
		if err != nil {
			return nil, err
		}
		return Range{Roots: left, Heads: heads, Generation: AllGenerations}, nil
	case TokColonColon:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		heads, err := p.optionalPostfix(VisibleHeads{})
		if err != nil {
			return nil, err
		}
		return DagRange{Roots: left, Heads: heads}, nil
	default:
		return left, nil
	}
}

// optionalPostfix parses a postfix-level expression if one follows,
// otherwise returns dflt (used for the defaulted end of a range).
func (p *Parser) optionalPostfix(dflt Expr) (Expr, error) {
	tok, err := p.peek(0)
	if err != nil {
		return nil, err
	}
	if !canStartAtom(tok.Kind) {
		return dflt, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek(0)
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case TokPlus:
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			left = Descendants{Roots: left, Depth: 1}
		case TokMinus:
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			left = Ancestors{Heads: left, Depth: 1}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAtom() (Expr, error) {
	tok, err := p.peek(0)
	if err != nil {
		return nil, err
	}

	switch tok.Kind {
	case TokLParen:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case TokAt:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		ws := ""
		if p.ctx.Workspace != nil {
			ws = p.ctx.Workspace.Name
		}
		return CommitRef{Kind: RefWorkingCopy, Workspace: ws}, nil

	case TokString:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return CommitRef{Kind: RefSymbol, Symbol: tok.Text}, nil

	case TokIdent, TokRemoteSymbol:
		return p.parseIdentOrCall()

	default:
		return nil, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: tok.End}, rerrors.Newf("expected expression, found %q", tok.Text))
	}
}

func (p *Parser) parseIdentOrCall() (Expr, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}
	name := tok.Text

	next, err := p.peek(0)
	if err != nil {
		return nil, err
	}

	if next.Kind != TokLParen {
		// Local variable from an enclosing alias expansion.
		if e, ok := p.ctx.LocalVars[name]; ok {
			return e, nil
		}
		// Zero-arg user alias.
		if def, ok := p.ctx.Aliases[name]; ok && len(def.Params) == 0 {
			return p.expandAlias(name, def, nil, tok)
		}
		if fn, ok := noArgBuiltins[name]; ok {
			return fn(p.ctx), nil
		}
		return CommitRef{Kind: RefSymbol, Symbol: name}, nil
	}

	// Function call: name(args)
	if _, err := p.advance(); err != nil { // consume '('
		return nil, err
	}

	// at_operation's first argument is an operation reference ("@",
	// "@-", "@--", an operation-id prefix), not a revset expression: the
	// postfix '-' there means "parent operation", a different relation
	// than the commit parent/child postfix operators. Parse it as raw
	// text instead of routing it through the expression grammar.
	if name == "at_operation" {
		return p.parseAtOperationCall(tok)
	}

	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}

	if def, ok := p.ctx.Aliases[name]; ok && len(def.Params) == len(args) {
		return p.expandAliasCall(name, def, args, tok)
	}

	builder, ok := builtinFuncs[name]
	if !ok {
		if fn, ok := noArgBuiltins[name]; ok {
			if len(args) != 0 {
				return nil, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: next.End}, rerrors.Wrapf(rerrors.ErrInvalidFunctionArguments, "%s() takes no arguments", name))
			}
			return fn(p.ctx), nil
		}
		return nil, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: next.End}, rerrors.Newf("unknown function `%s`", name))
	}
	e, err := builder(p.ctx, args)
	if err != nil {
		return nil, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: next.End}, err)
	}
	return e, nil
}

// parseAtOperationCall parses "at_operation(<opref>, <expr>)" where
// <opref> is "@", an identifier (operation-id prefix), optionally
// followed by one or more '-' tokens meaning "parent operation".
func (p *Parser) parseAtOperationCall(tok Token) (Expr, error) {
	opTok, err := p.peek(0)
	if err != nil {
		return nil, err
	}
	var opText string
	switch opTok.Kind {
	case TokAt, TokIdent, TokString:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		opText = opTok.Text
	default:
		return nil, rerrors.NewParseError(rerrors.Span{Start: opTok.Start, End: opTok.End}, rerrors.Newf("expected an operation reference"))
	}
	for {
		next, err := p.peek(0)
		if err != nil {
			return nil, err
		}
		if next.Kind != TokMinus {
			break
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		opText += "-"
	}
	if _, err := p.expect(TokComma, "','"); err != nil {
		return nil, err
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}
	return AtOperation{Op: opText, Inner: inner}, nil
}

func (p *Parser) expandAlias(name string, def AliasDefinition, args []RawArg, tok Token) (Expr, error) {
	childCtx, ok := p.ctx.pushAlias(name)
	if !ok {
		return nil, rerrors.NewParseError(rerrors.Span{Start: tok.Start, End: tok.End}, rerrors.Wrapf(rerrors.ErrUndefinedAlias, "alias `%s` expands into itself", name))
	}
	locals := map[string]Expr{}
	for i, param := range def.Params {
		e, err := argAsExpr(childCtx, args[i])
		if err != nil {
			return nil, err
		}
		locals[param] = e
	}
	bodyCtx := childCtx.child(locals)
	return Parse(def.Body, bodyCtx)
}

func (p *Parser) expandAliasCall(name string, def AliasDefinition, args []RawArg, tok Token) (Expr, error) {
	return p.expandAlias(name, def, args, tok)
}
