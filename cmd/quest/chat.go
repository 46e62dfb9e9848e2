package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/commitquest/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Play the quest in a full-screen chat",
	Long:  `Opens the quest in a full-screen terminal chat. Press Esc or Ctrl+C to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{Config: cfg}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		return cli.RunChat(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "chat", "Session ID to resume (needs a persistent --store)")
	chatCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
}
