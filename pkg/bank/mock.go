package bank

import "github.com/dambor/ai-mobile-bank/pkg/api"

// mockTransactions is the fixed fallback list shown when no live data and
// no cached data are available.
var mockTransactions = []api.Transaction{
	{
		ID:       "1",
		Title:    "Spotify",
		Subtitle: "Entertainment",
		Amount:   -15.99,
		Date:     "Today, 9:00 AM",
		Type:     api.TypeExpense,
		Icon:     "https://upload.wikimedia.org/wikipedia/commons/thumb/1/19/Spotify_logo_without_text.svg/168px-Spotify_logo_without_text.svg.png",
		Category: "Entertainment",
	},
	{
		ID:       "2",
		Title:    "Uber",
		Subtitle: "Transport",
		Amount:   -24.50,
		Date:     "Yesterday",
		Type:     api.TypeExpense,
		Icon:     "https://upload.wikimedia.org/wikipedia/commons/c/cc/Uber_logo_2018.png",
		Category: "Transport",
	},
	{
		ID:       "3",
		Title:    "Apple Store",
		Subtitle: "Electronics",
		Amount:   -999.00,
		Date:     "Sep 12",
		Type:     api.TypeExpense,
		Icon:     "https://upload.wikimedia.org/wikipedia/commons/f/fa/Apple_logo_black.svg",
		Category: "Shopping",
	},
	{
		ID:       "4",
		Title:    "Upwork Inc.",
		Subtitle: "Freelance",
		Amount:   850.00,
		Date:     "Sep 10",
		Type:     api.TypeIncome,
		Icon:     "U",
		Category: "Income",
	},
	{
		ID:       "5",
		Title:    "Starbucks",
		Subtitle: "Food & Drink",
		Amount:   -12.45,
		Date:     "Sep 09",
		Type:     api.TypeExpense,
		Icon:     "https://upload.wikimedia.org/wikipedia/en/thumb/d/d3/Starbucks_Corporation_Logo_2011.svg/1200px-Starbucks_Corporation_Logo_2011.svg.png",
		Category: "Food & Drink",
	},
	{
		ID:       "6",
		Title:    "Netflix",
		Subtitle: "Entertainment",
		Amount:   -14.99,
		Date:     "Sep 08",
		Type:     api.TypeExpense,
		Icon:     "https://upload.wikimedia.org/wikipedia/commons/thumb/0/08/Netflix_2015_logo.svg/1200px-Netflix_2015_logo.svg.png",
		Category: "Entertainment",
	},
	{
		ID:       "7",
		Title:    "Target",
		Subtitle: "Shopping",
		Amount:   -143.20,
		Date:     "Sep 05",
		Type:     api.TypeExpense,
		Icon:     "https://upload.wikimedia.org/wikipedia/commons/thumb/9/9a/Target_logo.svg/2048px-Target_logo.svg.png",
		Category: "Shopping",
	},
}

// MockTransactions returns a copy of the fallback transaction list.
func MockTransactions() []api.Transaction {
	out := make([]api.Transaction, len(mockTransactions))
	copy(out, mockTransactions)
	return out
}
