package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Release tooling for the Gatehouse changelog",
	Long: `Parse, validate and extract entries from CHANGELOG.md.

Used by the release workflow to validate the changelog and to extract
the release notes for a tagged version.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
