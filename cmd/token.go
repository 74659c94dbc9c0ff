package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/snapx/internal/web/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token <principal-id>",
	Short: "Mint a bearer token for an organizer",
	Long: `Mint a bearer token signed with AUTH_TOKEN_SECRET.

In production tokens come from the auth service sharing the secret; this
command is meant for development and scripts.

Example:
  snapx token organizer-42 --ttl 2h`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Duration("ttl", middleware.DefaultTokenTTL, "Token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := os.Getenv("AUTH_TOKEN_SECRET")
	if secret == "" {
		return errors.New("AUTH_TOKEN_SECRET environment variable is required")
	}
	ttl, err := cmd.Flags().GetDuration("ttl")
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive, got %s", ttl)
	}

	token, err := middleware.NewTokenVerifier(secret).Mint(args[0], ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
