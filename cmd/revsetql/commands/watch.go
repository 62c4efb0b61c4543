package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/revset/internal/revset/app"
	"github.com/teranos/revset/internal/rlog"
)

// WatchCmd re-evaluates a revset expression every time the repository's
// refs change, watching .git/refs and .git/HEAD the way an editor
// extension would poll a repository for log updates without re-cloning
// state on every keystroke.
var WatchCmd = &cobra.Command{
	Use:   "watch <revset>",
	Short: "Re-evaluate a revset expression whenever refs change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	expr := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Open(ctx)
	if err != nil {
		return err
	}
	gitDir := filepath.Join(a.Cfg.RepoPath, ".git")
	a.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watchPaths := []string{
		gitDir,
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
		filepath.Join(gitDir, "refs", "remotes"),
	}
	for _, p := range watchPaths {
		if err := watcher.Add(p); err != nil {
			rlog.Debugf("watch: skipping unwatchable path %s: %v", p, err)
		}
	}

	pterm.Info.Printfln("watching %s for changes to: %s", gitDir, expr)
	if err := evalOnce(ctx, expr); err != nil {
		pterm.Error.Println(err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pterm.Println()
			pterm.Info.Printfln("change detected (%s), re-evaluating", event.Name)
			if err := evalOnce(ctx, expr); err != nil {
				pterm.Error.Println(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			rlog.Warnf("watch: %v", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func evalOnce(ctx context.Context, expr string) error {
	a, err := app.Open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	parsed, err := a.Parse(expr)
	if err != nil {
		return err
	}
	ev, err := a.Evaluator(ctx)
	if err != nil {
		return err
	}
	result, err := ev.Evaluate(ctx, parsed)
	if err != nil {
		return err
	}
	fmt.Printf("%d commits\n", result.Len())
	return printLines(ctx, a, result, 0)
}
