package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jonathan/form-autofill/internal/config"
	"github.com/jonathan/form-autofill/internal/server"
	"github.com/jonathan/form-autofill/internal/server/ratelimit"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hosted classification backend",
	Long:  "Starts the HTTP server that classifies field batches for hosted clients, charging credits per batch.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.APIKey == "" {
		return fmt.Errorf("the server classifies with a direct provider: set api_key or the provider's key variable")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport, err := a.directTransport(ctx)
	if err != nil {
		return err
	}

	sessionConfig, err := config.LoadSessionConfig()
	if err != nil {
		return fmt.Errorf("failed to load session config: %w", err)
	}

	limits, err := ratelimit.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load rate limits: %w", err)
	}

	ledger, err := a.ledger(ctx)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:        servePort,
		Transport:   transport,
		Ledger:      ledger,
		JWT:         server.NewJWTService(sessionConfig),
		RateLimiter: ratelimit.NewLimiter(limits),
		Logger:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// ledger is the PostgreSQL credit ledger when configured. Without a database
// balances live in memory and are lost on restart.
func (a *app) ledger(ctx context.Context) (store.CreditLedger, error) {
	database, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	if database != nil {
		return database, nil
	}
	a.logger.Warn("no database_url configured, credit balances are kept in memory",
		zap.String("component", "ledger"))
	return store.NewMemoryLedger(), nil
}
