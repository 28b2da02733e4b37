package cmd

import (
	"github.com/spf13/cobra"
)

var (
	dataDir string
	rootCmd = &cobra.Command{
		Use:   "chemsafe",
		Short: "ChemSafe - Chemical safety data from PubChem",
		Long: `ChemSafe is a CLI/TUI application for collecting, storing and exploring
chemical safety data scraped from the PubChem PUG REST and PUG View APIs.

When run without commands, it launches an interactive TUI.
Use subcommands for CLI mode with JSON output.`,
		Run: func(cmd *cobra.Command, args []string) {
			// No subcommand specified - launch TUI
			LaunchTUI(dataDir)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "data/", "Directory for the database, cache and logs")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
