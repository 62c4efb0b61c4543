// Package app wires the revset engine's collaborators (gitview backend,
// operation store, resolver, evaluator) into one object cmd/revsetql's
// subcommands can share, the way the teacher's am.Load()+server wiring
// glues its own config to its own backends.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/teranos/revset/internal/config"
	"github.com/teranos/revset/internal/revset/ast"
	"github.com/teranos/revset/internal/revset/eval"
	"github.com/teranos/revset/internal/revset/gitview"
	"github.com/teranos/revset/internal/revset/opstore"
	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/resolve"
	"github.com/teranos/revset/internal/revset/types"
	"github.com/teranos/revset/internal/rlog"
)

// App bundles one repository's loaded state plus the collaborators an
// Evaluator needs. Built fresh per CLI invocation; "watch" mode rebuilds
// it on every filesystem event since the commit graph may have changed.
type App struct {
	Cfg   *config.Config
	Repo  *gitview.Repository
	View  *types.ViewSnapshot
	Store *opstore.Store
}

// Open loads configuration, the git repository at cfg.RepoPath, and the
// sqlite operation store, recording a new operation for this view the
// way a real jj command records one operation per invocation.
func Open(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, rerrors.Wrap(err, "load configuration")
	}
	if cfg.RepoPath == "" {
		cfg.RepoPath = "."
	}

	if err := rlog.Initialize(cfg.LogJSON); err != nil {
		return nil, rerrors.Wrap(err, "initialize logger")
	}

	repo, err := gitview.Load(ctx, cfg.RepoPath, rlog.Logger)
	if err != nil {
		return nil, rerrors.Wrap(err, "load repository")
	}
	view, err := gitview.BuildView(repo)
	if err != nil {
		return nil, rerrors.Wrap(err, "build view snapshot")
	}

	storePath := expandHome(cfg.OpStorePath)
	if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
		return nil, rerrors.Wrapf(err, "create operation store directory %s", filepath.Dir(storePath))
	}
	store, err := opstore.Open(storePath)
	if err != nil {
		return nil, rerrors.Wrap(err, "open operation store")
	}

	if _, err := store.RecordOp(ctx, view); err != nil {
		store.Close()
		return nil, rerrors.Wrap(err, "record operation")
	}

	return &App{Cfg: cfg, Repo: repo, View: view, Store: store}, nil
}

// Close releases the operation store handle.
func (a *App) Close() error { return a.Store.Close() }

// ParseContext builds an ast.ParseContext seeded from configuration:
// configured aliases, user email for mine(), and the active workspace.
func (a *App) ParseContext() *ast.ParseContext {
	pc := ast.NewParseContext()
	pc.UserEmail = a.Cfg.UserEmail
	pc.Workspace = &ast.WorkspaceContext{Name: a.Cfg.Workspace}
	for _, al := range a.Cfg.Aliases {
		pc.Aliases[al.Name] = ast.AliasDefinition{Params: al.Params, Body: al.Body}
	}
	return pc
}

// Evaluator builds an eval.Evaluator bound to this app's repository,
// view and a resolver scoped to the configured workspace.
func (a *App) Evaluator(ctx context.Context) (*eval.Evaluator, error) {
	heads, err := a.Repo.AllHeads(ctx)
	if err != nil {
		return nil, rerrors.Wrap(err, "list heads")
	}
	resolver := resolve.New(a.View, a.Repo, a.Cfg.Workspace, nil)
	limiter := rate.NewLimiter(rate.Limit(a.Cfg.RateLimitRPS), int(a.Cfg.RateLimitRPS))
	return eval.New(a.Repo, a.Repo, a.Repo, a.Store, resolver, heads, a.Cfg.Workspace, limiter), nil
}

// Parse parses src using this app's ParseContext, wrapping parse errors
// in the same rerrors taxonomy evaluation errors use.
func (a *App) Parse(src string) (ast.Expr, error) {
	expr, err := ast.Parse(src, a.ParseContext())
	if err != nil {
		return nil, rerrors.Wrapf(err, "parse revset %q", src)
	}
	return expr, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// FormatDescribeLine renders one commit the way `jj log` renders a
// compact one-line summary: change id, commit id, author, subject.
func FormatDescribeLine(ctx context.Context, repo *gitview.Repository, id types.CommitId) (string, error) {
	c, err := repo.ReadCommit(ctx, id)
	if err != nil {
		return "", err
	}
	subject := c.Subject()
	if subject == "" {
		subject = "(no description set)"
	}
	return fmt.Sprintf("%s %s %s %s", shortChange(c.ChangeId), shortCommit(c.Id), c.Author.NameEmail(), subject), nil
}

func shortCommit(id types.CommitId) string {
	h := id.Hex()
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

func shortChange(id types.ChangeId) string {
	h := types.ToReverseHex(id)
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
