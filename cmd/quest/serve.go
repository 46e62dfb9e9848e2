package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/commitquest/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Hosts quest sessions over HTTP.

Endpoints:
  GET    /health, /info, /metrics
  GET    /sessions                  list sessions
  POST   /sessions                  create a session
  GET    /sessions/{id}             read a session
  DELETE /sessions/{id}             remove a session
  POST   /sessions/{id}/submit      submit one line
  GET    /sessions/{id}/events      stream state diffs (SSE)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.ServeOptions{Config: cfg}
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.NonBlocking, _ = cmd.Flags().GetBool("non-blocking")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.Serve(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (defaults to server.addr)")
	serveCmd.Flags().Bool("non-blocking", false, "Reject concurrent submissions to a session with 409")
}
