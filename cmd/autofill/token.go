package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/form-autofill/internal/config"
	"github.com/jonathan/form-autofill/internal/server"
	"github.com/spf13/cobra"
)

var (
	tokenAccount string
	tokenGrant   int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a hosted backend session token",
	Long:  "Signs a session token for an account with AUTOFILL_SESSION_SECRET (or JWT_SECRET) and optionally grants it credits in the configured database.",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenAccount, "account", "", "Account ID (a new one is generated when empty)")
	tokenCmd.Flags().IntVar(&tokenGrant, "grant", 0, "Credits to add to the account")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	account := uuid.New()
	if tokenAccount != "" {
		parsed, err := uuid.Parse(tokenAccount)
		if err != nil {
			return fmt.Errorf("invalid account ID: %w", err)
		}
		account = parsed
	}
	if tokenGrant < 0 {
		return fmt.Errorf("grant must not be negative")
	}

	sessionConfig, err := config.LoadSessionConfig()
	if err != nil {
		return fmt.Errorf("failed to load session config: %w", err)
	}
	token, err := server.NewJWTService(sessionConfig).GenerateToken(account)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if tokenGrant > 0 {
		a, err := persistentApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ledger, err := a.ledger(cmd.Context())
		if err != nil {
			return err
		}
		balance, err := ledger.Grant(cmd.Context(), account, tokenGrant)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "account: %s\ncredits: %d\n", account, balance)
	} else {
		_, _ = fmt.Fprintf(out, "account: %s\n", account)
	}
	_, _ = fmt.Fprintf(out, "token: %s\n", token)
	return nil
}
