package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/revset/internal/revset/app"
	"github.com/teranos/revset/internal/revset/eval"
)

var (
	evalGraph bool
	evalLimit int
)

// EvalCmd evaluates a revset expression once and prints its result.
var EvalCmd = &cobra.Command{
	Use:   "eval <revset>",
	Short: "Evaluate a revset expression against the repository",
	Long: `Evaluate a revset expression and print the matching commits in
reverse-topological order, one per line.

Examples:
  revsetql eval '@'
  revsetql eval 'mine() & ancestors(@)'
  revsetql eval --graph 'heads(all())'`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	EvalCmd.Flags().BoolVar(&evalGraph, "graph", false, "print parent edges alongside each commit")
	EvalCmd.Flags().IntVar(&evalLimit, "limit", 0, "print at most this many commits (0 = unlimited)")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := app.Open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	expr, err := a.Parse(args[0])
	if err != nil {
		return err
	}

	ev, err := a.Evaluator(ctx)
	if err != nil {
		return err
	}
	result, err := ev.Evaluate(ctx, expr)
	if err != nil {
		return err
	}

	if evalLimit > 0 && result.Len() > evalLimit {
		pterm.Warning.Printf("showing %d of %d matching commits\n", evalLimit, result.Len())
	}

	if evalGraph {
		return printGraph(ctx, a, result, evalLimit)
	}
	return printLines(ctx, a, result, evalLimit)
}

func printLines(ctx context.Context, a *app.App, result *eval.Revset, limit int) error {
	ids := result.Ids()
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	for _, id := range ids {
		line, err := app.FormatDescribeLine(ctx, a.Repo, id)
		if err != nil {
			fmt.Println(id.Hex())
			continue
		}
		fmt.Println(line)
	}
	return nil
}

func printGraph(ctx context.Context, a *app.App, result *eval.Revset, limit int) error {
	edges, err := result.IterGraph(ctx)
	if err != nil {
		return err
	}
	ids := result.Ids()
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	for _, id := range ids {
		line, err := app.FormatDescribeLine(ctx, a.Repo, id)
		if err != nil {
			line = id.Hex()
		}
		fmt.Println(line)
		for _, e := range edges[id.Hex()] {
			marker := "|"
			if !e.Direct {
				marker = ":"
			}
			fmt.Printf("  %s %s\n", marker, e.Parent.Hex()[:min(8, len(e.Parent.Hex()))])
		}
	}
	return nil
}
