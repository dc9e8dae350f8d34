package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	seedMerchants = []string{"Amazon", "Uber", "Starbucks", "Walmart", "Target", "Netflix", "Spotify"}
	seedStatuses  = []string{"COMPLETED", "PENDING", "FAILED"}
)

// Seed populates the store with n randomized transactions for a customer:
// a 60% credit bias, credit amounts in 100–1000, debit amounts in 10–200,
// and timestamps within the last 30 days. The final record is forced to a
// credit large enough that total credits exceed total debits, so the demo
// account always shows a positive balance.
func Seed(ctx context.Context, store Store, customerID uuid.UUID, n int) error {
	credits := decimal.Zero
	debits := decimal.Zero

	for i := 0; i < n; i++ {
		txnType := TypeDebit
		amount := randomAmount(10, 200)
		if rand.Float64() > 0.4 {
			txnType = TypeCredit
			amount = randomAmount(100, 1000)
		}

		if i == n-1 && credits.Add(creditPart(txnType, amount)).LessThanOrEqual(debits.Add(debitPart(txnType, amount))) {
			txnType = TypeCredit
			amount = debits.Sub(credits).Add(randomAmount(50, 150))
		}

		if txnType == TypeCredit {
			credits = credits.Add(amount)
		} else {
			debits = debits.Add(amount)
		}

		merchant := seedMerchants[rand.Intn(len(seedMerchants))]
		timestamp := time.Now().
			AddDate(0, 0, -rand.Intn(31)).
			Add(-time.Duration(rand.Intn(86400)) * time.Second)

		rec := Record{
			CustomerID:      customerID,
			TransactionID:   uuid.New(),
			Amount:          amount,
			Currency:        "USD",
			TransactionType: txnType,
			MerchantName:    merchant,
			Description:     fmt.Sprintf("Transaction at %s", merchant),
			Status:          seedStatuses[rand.Intn(len(seedStatuses))],
			BalanceSnapshot: credits.Sub(debits),
			Timestamp:       timestamp,
		}

		if err := store.Insert(ctx, rec); err != nil {
			return fmt.Errorf("inserting seed record: %w", err)
		}
	}

	return nil
}

func randomAmount(low, high float64) decimal.Decimal {
	return decimal.NewFromFloat(low + rand.Float64()*(high-low)).Round(2)
}

func creditPart(txnType string, amount decimal.Decimal) decimal.Decimal {
	if txnType == TypeCredit {
		return amount
	}
	return decimal.Zero
}

func debitPart(txnType string, amount decimal.Decimal) decimal.Decimal {
	if txnType == TypeDebit {
		return amount
	}
	return decimal.Zero
}
