package ledger

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed 001_create_bank_transactions.sql
var migrationSQL string

// PostgresConfig holds the PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// PostgresStore persists the ledger in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects to PostgreSQL, verifies the connection and
// runs the schema migration.
func NewPostgresStore(cfg PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// The database container may still be starting; give it a few tries.
	err = retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return pool.Ping(ctx)
		},
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)

	s := &PostgresStore{pool: pool, logger: logger}

	if err := s.runMigrations(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	s.logger.Info("running database migrations")

	if _, err := s.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}

	s.logger.Info("migrations completed successfully")
	return nil
}

const selectColumns = `
	customer_id, transaction_id, amount::text, currency, transaction_type,
	merchant_name, description, status, balance_snapshot::text, transaction_timestamp
`

// ListTransactions returns a customer's transactions, newest first.
func (s *PostgresStore) ListTransactions(ctx context.Context, customerID uuid.UUID) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM bank_transactions
		WHERE customer_id = $1
		ORDER BY transaction_timestamp DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return records, nil
}

// GetTransaction returns a single transaction or ErrNotFound.
func (s *PostgresStore) GetTransaction(ctx context.Context, customerID, transactionID uuid.UUID) (Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM bank_transactions
		WHERE customer_id = $1 AND transaction_id = $2
	`, customerID, transactionID)
	if err != nil {
		return Record{}, fmt.Errorf("querying transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Record{}, fmt.Errorf("querying transaction: %w", err)
		}
		return Record{}, ErrNotFound
	}

	return scanRecord(rows)
}

// Balance sums the customer's ledger.
func (s *PostgresStore) Balance(ctx context.Context, customerID uuid.UUID) (Balance, error) {
	records, err := s.ListTransactions(ctx, customerID)
	if err != nil {
		return Balance{}, err
	}

	return computeBalance(records), nil
}

// Insert appends a new record.
func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bank_transactions (
			customer_id, transaction_id, amount, currency, transaction_type,
			merchant_name, description, status, balance_snapshot, transaction_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rec.CustomerID,
		rec.TransactionID,
		rec.Amount.String(),
		rec.Currency,
		rec.TransactionType,
		rec.MerchantName,
		rec.Description,
		rec.Status,
		rec.BalanceSnapshot.String(),
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanRecord(rows pgx.Rows) (Record, error) {
	var rec Record
	var amount, snapshot string

	if err := rows.Scan(
		&rec.CustomerID,
		&rec.TransactionID,
		&amount,
		&rec.Currency,
		&rec.TransactionType,
		&rec.MerchantName,
		&rec.Description,
		&rec.Status,
		&snapshot,
		&rec.Timestamp,
	); err != nil {
		return Record{}, fmt.Errorf("scanning transaction: %w", err)
	}

	var err error
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return Record{}, fmt.Errorf("parsing amount: %w", err)
	}
	if rec.BalanceSnapshot, err = decimal.NewFromString(snapshot); err != nil {
		return Record{}, fmt.Errorf("parsing balance snapshot: %w", err)
	}

	return rec, nil
}
