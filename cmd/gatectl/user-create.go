package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/db"
	"github.com/gatehouse/gatehouse/pkg/model"
	gormstore "github.com/gatehouse/gatehouse/pkg/server/store/gorm"
)

// userCreateCmd represents the user create command
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user directly in the database.

If no password is given, a random one is generated and printed to stdout.

Example:
  gatectl user create --email admin@example.com --role admin
  gatectl user create --email bot@example.com --password s3cret`,
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		roleName, _ := cmd.Flags().GetString("role")
		password, _ := cmd.Flags().GetString("password")

		if err := createUser(email, name, roleName, password); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().String("email", "", "user email (required)")
	userCreateCmd.Flags().String("name", "", "display name")
	userCreateCmd.Flags().String("role", "user", "role (admin, user or pending)")
	userCreateCmd.Flags().String("password", "", "password (generated when empty)")
	_ = userCreateCmd.MarkFlagRequired("email")
}

func createUser(email, name, roleName, password string) error {
	role, err := model.RoleString(roleName)
	if err != nil {
		return fmt.Errorf("unknown role %q", roleName)
	}

	generated := false
	if password == "" {
		password, err = randomPassword()
		if err != nil {
			return err
		}
		generated = true
	}

	hash, err := credentials.HashPassword(password)
	if err != nil {
		return err
	}

	gormDB, err := db.Connect(db.Config{})
	if err != nil {
		return err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		name = email
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: &hash,
	}
	if err := gormstore.NewUserStore(gormDB).Insert(user); err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s) with role %s\n", user.ID, user.Email, user.Role)
	if generated {
		fmt.Println("Generated password:", password)
	}
	return nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
