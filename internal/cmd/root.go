// Package cmd implements the sieve command line.
package cmd

import (
	"github.com/spf13/cobra"
)

const (
	groupCore  = "core"
	groupSetup = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "sieve",
	Short: "interactive fuzzy picker over any candidate source",
	Long: `sieve - interactive fuzzy picker over any candidate source
  - pick from files, grep matches or stdin lines as you type
  - resume the last search, recall earlier prompts`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyColorMode()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Picking:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")

	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
