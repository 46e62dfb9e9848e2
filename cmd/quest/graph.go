package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/commitquest/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [session-id]",
	Short: "Export the wizard graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the quest wizard.
Given a session ID, the session's current step is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		var sessionID string
		if len(args) > 0 {
			sessionID = args[0]
		}
		return cli.PrintGraph(cmd.Context(), cfg, sessionID, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
