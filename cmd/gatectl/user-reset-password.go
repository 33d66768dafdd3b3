package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/db"
	gormstore "github.com/gatehouse/gatehouse/pkg/server/store/gorm"
)

// userResetPasswordCmd represents the user reset-password command
var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email>",
	Short: "Reset a user's password",
	Long: `Reset the password for a user.

A new random password is generated and printed to stdout.

Example:
  gatectl user reset-password admin@example.com`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		email := args[0]

		password, err := resetPassword(email)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reset password for %s: %v\n", email, err)
			os.Exit(1)
		}
		fmt.Println(password)
	},
}

func init() {
	userCmd.AddCommand(userResetPasswordCmd)
}

func resetPassword(email string) (string, error) {
	gormDB, err := db.Connect(db.Config{})
	if err != nil {
		return "", err
	}
	users := gormstore.NewUserStore(gormDB)

	user, err := users.FindByEmail(email)
	if err != nil {
		return "", err
	}

	password, err := randomPassword()
	if err != nil {
		return "", err
	}
	hash, err := credentials.HashPassword(password)
	if err != nil {
		return "", err
	}

	if err := users.UpdatePassword(user.ID, hash); err != nil {
		return "", err
	}
	return password, nil
}
