// Package ledger stores bank transactions for the demo upstream API. Two
// implementations exist: an in-memory seeded store and a PostgreSQL store.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

// Transaction type markers. Anything that is not DEBIT is treated as a
// credit when summing balances.
const (
	TypeCredit = "CREDIT"
	TypeDebit  = "DEBIT"
)

// Record is one ledger entry.
type Record struct {
	CustomerID      uuid.UUID
	TransactionID   uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	TransactionType string
	MerchantName    string
	Description     string
	Status          string
	BalanceSnapshot decimal.Decimal
	Timestamp       time.Time
}

// Balance is a customer's current balance.
type Balance struct {
	Amount   decimal.Decimal
	Currency string
}

// Store is the persistence interface the API handlers talk to.
type Store interface {
	// ListTransactions returns a customer's transactions, newest first.
	ListTransactions(ctx context.Context, customerID uuid.UUID) ([]Record, error)
	// GetTransaction returns a single transaction or ErrNotFound.
	GetTransaction(ctx context.Context, customerID, transactionID uuid.UUID) (Record, error)
	// Balance sums the customer's ledger.
	Balance(ctx context.Context, customerID uuid.UUID) (Balance, error)
	// Insert appends a new record.
	Insert(ctx context.Context, rec Record) error
	// Close releases the store's resources.
	Close()
}

// computeBalance sums credits minus debits. A missing or unknown type
// marker counts as a credit. The currency is the last non-empty currency
// seen, defaulting to USD.
func computeBalance(records []Record) Balance {
	balance := Balance{Amount: decimal.Zero, Currency: "USD"}

	for _, rec := range records {
		if rec.Currency != "" {
			balance.Currency = rec.Currency
		}

		if strings.ToUpper(rec.TransactionType) == TypeDebit {
			balance.Amount = balance.Amount.Sub(rec.Amount)
		} else {
			balance.Amount = balance.Amount.Add(rec.Amount)
		}
	}

	return balance
}
