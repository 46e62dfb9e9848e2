package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/commitquest"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of quest",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quest version %s\n", strings.TrimSpace(commitquest.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
