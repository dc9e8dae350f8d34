// Command bankd runs the demo upstream banking API: an HTTP service
// exposing per-customer balance and transaction endpoints over an
// in-memory seeded ledger, or PostgreSQL when configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/dambor/ai-mobile-bank/internal/ledger"
	"github.com/dambor/ai-mobile-bank/internal/server"
	"github.com/dambor/ai-mobile-bank/pkg/config"
	"github.com/dambor/ai-mobile-bank/pkg/logging"
)

// serverConfig holds the bankd configuration loaded from environment
// variables.
type serverConfig struct {
	// Port is the listen port. Environment variable: PORT
	Port int `koanf:"PORT"`

	// CustomerID is the demo customer to seed. Environment variable: CUSTOMER_ID
	CustomerID string `koanf:"CUSTOMER_ID"`

	// SeedTransactions is how many transactions to seed into the
	// in-memory store. Environment variable: SEED_TRANSACTIONS
	SeedTransactions int `koanf:"SEED_TRANSACTIONS"`

	// Postgres configuration; leaving POSTGRES_HOST empty selects the
	// in-memory store.
	Postgres postgresConfig `koanf:",squash"`
}

type postgresConfig struct {
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
}

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	if err := run(logger); err != nil {
		logger.Error("bankd failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg serverConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.CustomerID == "" {
		cfg.CustomerID = config.DefaultCustomerID
	}
	if cfg.SeedTransactions == 0 {
		cfg.SeedTransactions = 100
	}

	store, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.New(store, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("bankd listening", "addr", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}

	logger.Info("bankd stopped")
	return nil
}

// buildStore selects the ledger backend: PostgreSQL when POSTGRES_HOST is
// set, otherwise an in-memory store seeded with demo data.
func buildStore(cfg serverConfig, logger *slog.Logger) (ledger.Store, error) {
	if cfg.Postgres.Host != "" {
		store, err := ledger.NewPostgresStore(ledger.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		return store, nil
	}

	customerID, err := uuid.Parse(cfg.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("parsing CUSTOMER_ID: %w", err)
	}

	store := ledger.NewMemoryStore()
	if err := ledger.Seed(context.Background(), store, customerID, cfg.SeedTransactions); err != nil {
		return nil, fmt.Errorf("seeding ledger: %w", err)
	}

	logger.Info("seeded in-memory ledger",
		"customer_id", customerID,
		"transactions", cfg.SeedTransactions,
	)

	return store, nil
}
