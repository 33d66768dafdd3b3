package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// sessionSecretGenerateCmd represents the session-secret generate command
var sessionSecretGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a session signing secret",
	Long: `Generate a random 256-bit session signing secret.

The secret is printed base64-encoded to stdout. Rotating the secret
invalidates all outstanding session tokens.

Example:
  gatectl session-secret generate > session_secret
  export GATEHOUSE_SESSION_SECRET=$(cat session_secret)`,
	Run: func(cmd *cobra.Command, args []string) {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(secret))
	},
}

func init() {
	sessionSecretCmd.AddCommand(sessionSecretGenerateCmd)
}
