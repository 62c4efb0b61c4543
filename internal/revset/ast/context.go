package ast

import "time"

// AliasDefinition is a textual user alias: `name(params...) = body` for a
// function-like alias, or `name = body` (no params) for a symbol alias.
type AliasDefinition struct {
	Params []string
	Body   string
}

// WorkspaceContext names the current workspace for bare `@` resolution.
type WorkspaceContext struct {
	Name string
}

// ParseContext is the parse-time configuration described in §6's
// "User-facing surface": aliases, local variables for nested alias
// bodies, the configured user email (for `mine`), "now" for date
// patterns, and the current workspace.
type ParseContext struct {
	Aliases       map[string]AliasDefinition
	LocalVars     map[string]Expr
	UserEmail     string
	Now           time.Time
	Workspace     *WorkspaceContext
	aliasStack    []string // cycle detection while expanding
}

// NewParseContext builds a ParseContext with empty aliases/locals.
func NewParseContext() *ParseContext {
	return &ParseContext{
		Aliases:   map[string]AliasDefinition{},
		LocalVars: map[string]Expr{},
		Now:       time.Now(),
	}
}

// child returns a ParseContext for expanding an alias body: same aliases
// and cycle stack, fresh local variables bound to the call's arguments.
func (c *ParseContext) child(locals map[string]Expr) *ParseContext {
	return &ParseContext{
		Aliases:    c.Aliases,
		LocalVars:  locals,
		UserEmail:  c.UserEmail,
		Now:        c.Now,
		Workspace:  c.Workspace,
		aliasStack: c.aliasStack,
	}
}

func (c *ParseContext) pushAlias(name string) (*ParseContext, bool) {
	for _, a := range c.aliasStack {
		if a == name {
			return c, false
		}
	}
	next := *c
	next.aliasStack = append(append([]string{}, c.aliasStack...), name)
	return &next, true
}
