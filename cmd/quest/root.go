package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/commitquest/internal/cli"
	"github.com/aretw0/commitquest/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "quest",
	Short: "Commit Message Quest turns writing commit messages into a tiny RPG",
	Long: `Commit Message Quest is a wizard that asks for a commit class (feat, fix, chore)
and a message, then asks a backend to generate the conventional commit.

Run it as a terminal REPL, a full-screen chat, an HTTP API or an MCP server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", config.DefaultPath, "Configuration file (.yaml, .json or .toml)")
	flags.String("backend", "", "Backend kind: http, process or llm")
	flags.String("url", "", "Base URL of the http backend")
	flags.String("command", "", "Executable of the process backend")
	flags.String("store", "", "Session store: memory, file, redis or sqlite")
	flags.String("project-dir", "", "Project directory forwarded to the backend")
	flags.String("timeout", "", "Backend call timeout (e.g. 5s, 0 disables it)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Bool("auto-commit", false, "Ask the backend to commit the generated message")
	flags.Bool("debug", false, "Log engine events to Stderr")
}

// loadConfig resolves the configuration for cmd: file, then QUEST_* variables, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	var o cli.Overrides
	o.Backend, _ = flags.GetString("backend")
	o.BackendURL, _ = flags.GetString("url")
	o.Command, _ = flags.GetString("command")
	o.Store, _ = flags.GetString("store")
	o.ProjectDir, _ = flags.GetString("project-dir")
	o.Timeout, _ = flags.GetString("timeout")
	o.LogLevel, _ = flags.GetString("log-level")
	if flags.Changed("auto-commit") {
		v, _ := flags.GetBool("auto-commit")
		o.AutoCommit = &v
	}
	return cli.LoadConfig(path, o)
}
