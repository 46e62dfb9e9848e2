package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/commitquest/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play the quest in the terminal",
	Long: `Starts an interactive quest on Stdin/Stdout.

Type 'exit' or 'quit' to leave. With --json, every line in and out is NDJSON,
which makes the quest scriptable by other programs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{Config: cfg}
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		return cli.RunSession(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().StringP("session", "s", "", "Session ID to resume (needs a persistent --store)")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and session notice")

	// 'run' is the default if no command is provided
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
