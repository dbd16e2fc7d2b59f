package cmd

import (
	"fmt"
	"os"

	"trackvault/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trackvault",
	Short: "TrackVault is a hosted metadata API for a music-track library.",
	Run: func(cmd *cobra.Command, args []string) {
		// Running without a subcommand starts the server.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
