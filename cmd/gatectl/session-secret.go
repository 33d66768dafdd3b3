package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// sessionSecretCmd represents the session-secret command
var sessionSecretCmd = &cobra.Command{
	Use:   "session-secret",
	Short: "Manage the session signing secret",
	Long:  `Manage the secret used to sign session tokens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'session-secret' requires a subcommand (generate)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(sessionSecretCmd)
}
