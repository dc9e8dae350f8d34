// Package api defines the core data structures shared across the banking client.
package api

import "strings"

// Transaction type tags. TypeIncome must accompany a positive amount and
// TypeExpense a negative one; the normalizer keeps the two consistent.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Transaction is the canonical, display-ready representation of a ledger
// entry. Instances are built fresh on every normalization pass and never
// mutated afterwards.
type Transaction struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`

	// Amount is signed: negative for expenses, positive for income.
	Amount float64 `json:"amount"`

	// Date is a pre-formatted display string ("Today, 9:00 AM", "Sep 12"),
	// not a raw timestamp.
	Date     string `json:"date"`
	Type     string `json:"type"`
	Icon     string `json:"icon"`
	Category string `json:"category"`

	// Timestamp is the origin ISO timestamp, present only when the source
	// supplied one.
	Timestamp string `json:"timestamp,omitempty"`
}

// IsIconURL reports whether the transaction icon is an image URL rather
// than a single-character glyph.
func (t Transaction) IsIconURL() bool {
	return strings.HasPrefix(t.Icon, "http://") || strings.HasPrefix(t.Icon, "https://")
}
