package bank

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dambor/ai-mobile-bank/pkg/api"
)

// flexNumber decodes a JSON number that may arrive either as a number or
// as a numeric string. Unparseable input decodes to NaN rather than
// failing the surrounding record.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*f = flexNumber(math.NaN())
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = flexNumber(math.NaN())
		return nil
	}

	*f = flexNumber(v)
	return nil
}

// rawTransaction mirrors the field-name variants the upstream API is known
// to produce.
type rawTransaction struct {
	TransactionID   string     `json:"transaction_id"`
	ID              string     `json:"id"`
	MerchantName    string     `json:"merchant_name"`
	Merchant        string     `json:"merchant"`
	Description     string     `json:"description"`
	TransactionType string     `json:"transaction_type"`
	Amount          flexNumber `json:"amount"`
	Timestamp       string     `json:"transaction_timestamp"`
}

// extractList unwraps the raw payload into a list of items. The payload is
// expected to be an array, or an object carrying the array under
// "transactions" or "data"; anything else counts as no data.
func extractList(payload json.RawMessage) []json.RawMessage {
	var list []json.RawMessage
	if err := json.Unmarshal(payload, &list); err == nil {
		return list
	}

	var wrapped struct {
		Transactions []json.RawMessage `json:"transactions"`
		Data         []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil
	}
	if len(wrapped.Transactions) > 0 {
		return wrapped.Transactions
	}
	return wrapped.Data
}

// normalizeTransactions maps the raw payload into canonical transaction
// records, preserving input order. Items whose amount cannot be parsed are
// dropped. An empty result means the caller should fall back to cached or
// mock data.
func normalizeTransactions(payload json.RawMessage, now time.Time) []api.Transaction {
	list := extractList(payload)
	if len(list) == 0 {
		return nil
	}

	out := make([]api.Transaction, 0, len(list))
	for i, item := range list {
		raw := rawTransaction{Amount: flexNumber(math.NaN())}
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		if math.IsNaN(float64(raw.Amount)) {
			continue
		}

		merchant := raw.MerchantName
		if merchant == "" {
			merchant = raw.Merchant
		}
		if merchant == "" {
			merchant = "Unknown Merchant"
		}

		// DEBIT forces the magnitude negative; any other type marker,
		// including a missing one, counts as income.
		amount := math.Abs(float64(raw.Amount))
		if raw.TransactionType == "DEBIT" {
			amount = -amount
		}

		txnType := api.TypeExpense
		if amount > 0 {
			txnType = api.TypeIncome
		}

		id := raw.TransactionID
		if id == "" {
			id = raw.ID
		}
		if id == "" {
			id = uuid.NewString()
		}

		category := merchantCategory(merchant)

		subtitle := raw.Description
		if subtitle == "" {
			subtitle = category
		}

		date := ""
		if raw.Timestamp != "" {
			date = formatTimestamp(raw.Timestamp, now)
		}
		if date == "" {
			date = generateDate(i, now)
		}

		out = append(out, api.Transaction{
			ID:        id,
			Title:     merchant,
			Subtitle:  subtitle,
			Amount:    amount,
			Date:      date,
			Type:      txnType,
			Icon:      merchantIcon(merchant),
			Category:  category,
			Timestamp: raw.Timestamp,
		})
	}

	return out
}

// merchantIcons maps merchant-name keywords to brand logo URLs. Matching
// is case-insensitive substring, first hit wins.
var merchantIcons = []struct {
	keyword string
	url     string
}{
	{"spotify", "https://upload.wikimedia.org/wikipedia/commons/thumb/1/19/Spotify_logo_without_text.svg/168px-Spotify_logo_without_text.svg.png"},
	{"netflix", "https://upload.wikimedia.org/wikipedia/commons/thumb/0/08/Netflix_2015_logo.svg/1200px-Netflix_2015_logo.svg.png"},
	{"amazon", "https://upload.wikimedia.org/wikipedia/commons/thumb/4/4a/Amazon_icon.svg/2048px-Amazon_icon.svg.png"},
	{"starbucks", "https://upload.wikimedia.org/wikipedia/en/thumb/d/d3/Starbucks_Corporation_Logo_2011.svg/1200px-Starbucks_Corporation_Logo_2011.svg.png"},
	{"target", "https://upload.wikimedia.org/wikipedia/commons/thumb/9/9a/Target_logo.svg/2048px-Target_logo.svg.png"},
	{"uber", "https://upload.wikimedia.org/wikipedia/commons/c/cc/Uber_logo_2018.png"},
	{"walmart", "https://upload.wikimedia.org/wikipedia/commons/thumb/c/ca/Walmart_logo.svg/2048px-Walmart_logo.svg.png"},
	{"apple", "https://upload.wikimedia.org/wikipedia/commons/f/fa/Apple_logo_black.svg"},
	{"nike", "https://upload.wikimedia.org/wikipedia/commons/a/a6/Logo_NIKE.svg"},
}

func merchantIcon(merchant string) string {
	name := strings.ToLower(merchant)
	for _, entry := range merchantIcons {
		if strings.Contains(name, entry.keyword) {
			return entry.url
		}
	}

	// Fall back to a single-letter glyph.
	return strings.ToUpper(string([]rune(merchant)[0]))
}

var merchantCategories = []struct {
	keywords []string
	category string
}{
	{[]string{"spotify", "netflix"}, "Entertainment"},
	{[]string{"starbucks", "mcdonald", "burger"}, "Food & Drink"},
	{[]string{"uber", "lyft"}, "Transport"},
	{[]string{"amazon", "target", "walmart"}, "Shopping"},
	{[]string{"salary", "upwork"}, "Income"},
}

func merchantCategory(merchant string) string {
	name := strings.ToLower(merchant)
	for _, entry := range merchantCategories {
		for _, keyword := range entry.keywords {
			if strings.Contains(name, keyword) {
				return entry.category
			}
		}
	}
	return "General"
}

// timestampLayouts covers the ISO-like formats the upstream emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// formatTimestamp renders an origin timestamp relative to now: clock time
// for today, "Yesterday", or month/day. An unparseable timestamp returns
// "" so the caller can synthesize a date instead.
func formatTimestamp(ts string, now time.Time) string {
	var parsed time.Time
	var err error
	for _, layout := range timestampLayouts {
		parsed, err = time.Parse(layout, ts)
		if err == nil {
			break
		}
	}
	if err != nil {
		return ""
	}

	parsed = parsed.In(now.Location())

	if sameDay(parsed, now) {
		return "Today, " + parsed.Format("3:04 PM")
	}
	if sameDay(parsed, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}

	return parsed.Format("Jan 2")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// generateDate synthesizes a plausible recent display date from the item's
// position in the list. Presentation filler for sources that omit
// timestamps, not real data.
func generateDate(index int, now time.Time) string {
	daysBack := index / 3
	switch daysBack {
	case 0:
		return fmt.Sprintf("Today, %d:30 PM", 18-index)
	case 1:
		return "Yesterday"
	default:
		return now.AddDate(0, 0, -daysBack).Format("Jan 2")
	}
}
