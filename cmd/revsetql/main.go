// Command revsetql evaluates revset expressions against a git repository,
// the same grammar's query engine exposed as a standalone CLI rather than
// embedded in a larger tool, the way cmd/qntx exposes QNTX's subsystems.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/revset/cmd/revsetql/commands"
)

var rootCmd = &cobra.Command{
	Use:   "revsetql",
	Short: "Query a git commit graph with jj-style revset expressions",
	Long: `revsetql evaluates revset expressions against a git repository.

Examples:
  revsetql eval 'mine() & ancestors(@)'
  revsetql eval --graph 'heads(all())'
  revsetql watch 'bookmarks()'
  revsetql config show`,
}

func init() {
	rootCmd.PersistentFlags().String("repo", "", "path to the git repository (default: current directory)")
	rootCmd.PersistentFlags().String("user-email", "", "email used by mine()")
	rootCmd.PersistentFlags().Bool("json-log", false, "emit structured JSON logs instead of console output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		// Flags override layered config via the same environment
		// variables viper's AutomaticEnv binds, so a flag always wins
		// without duplicating config's merge logic here.
		if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
			os.Setenv("REVSETQL_REPO_PATH", repo)
		}
		if email, _ := cmd.Flags().GetString("user-email"); email != "" {
			os.Setenv("REVSETQL_USER_EMAIL", email)
		}
		if jsonLog, _ := cmd.Flags().GetBool("json-log"); jsonLog {
			os.Setenv("REVSETQL_LOG_JSON", "true")
		}
		return nil
	}

	rootCmd.AddCommand(commands.EvalCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
