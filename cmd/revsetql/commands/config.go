package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/revset/internal/config"
)

// ConfigCmd groups configuration inspection subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect resolved revsetql configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration (system/user/project/env merged)",
	RunE:  runConfigShow,
}

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "print as JSON")
	ConfigCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if configShowJSON {
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	pterm.DefaultSection.Println("revsetql configuration")
	fmt.Printf("repo_path:       %s\n", cfg.RepoPath)
	fmt.Printf("workspace:       %s\n", cfg.Workspace)
	fmt.Printf("user_email:      %s\n", cfg.UserEmail)
	fmt.Printf("log_json:        %v\n", cfg.LogJSON)
	fmt.Printf("op_store_path:   %s\n", cfg.OpStorePath)
	fmt.Printf("rate_limit_rps:  %v\n", cfg.RateLimitRPS)
	if len(cfg.Aliases) == 0 {
		return nil
	}
	pterm.Println()
	pterm.DefaultSection.Println("aliases")
	for _, a := range cfg.Aliases {
		fmt.Printf("%s(%v) = %s\n", a.Name, a.Params, a.Body)
	}
	return nil
}
