// Package bank exposes the cached balance and transaction accessors the UI
// renders from. Reads always resolve to some value: network and parsing
// failures degrade to stale cache or fixed defaults, never to an error.
package bank

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/dambor/ai-mobile-bank/pkg/api"
)

// defaultCacheWindow is how long a fetched value stays fresh.
const defaultCacheWindow = 5 * time.Minute

// Fetcher resolves an endpoint path to a JSON payload. Satisfied by
// *fetch.Resolver.
type Fetcher interface {
	Resolve(ctx context.Context, endpoint string) (json.RawMessage, error)
}

// Config holds the service configuration.
type Config struct {
	// CustomerID is the customer whose account is being simulated.
	CustomerID string

	// CacheWindow overrides the freshness window. Zero means the default
	// of five minutes.
	CacheWindow time.Duration

	// Now overrides the clock, for tests. Zero means time.Now.
	Now func() time.Time
}

// Service owns the two process-wide domain caches and the fetcher that
// refreshes them. Construct one per composition root; there is no hidden
// package-level state.
type Service struct {
	fetcher    Fetcher
	customerID string
	logger     *slog.Logger
	now        func() time.Time

	balance      timedCache[float64]
	transactions timedCache[[]api.Transaction]
}

// NewService creates a Service backed by the given fetcher.
func NewService(fetcher Fetcher, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	window := cfg.CacheWindow
	if window == 0 {
		window = defaultCacheWindow
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Service{
		fetcher:    fetcher,
		customerID: cfg.CustomerID,
		logger:     logger,
		now:        now,
	}
	s.balance.window = window
	s.transactions.window = window

	return s
}

// AccountBalance returns the current account balance. A fresh cached value
// is returned without any network attempt unless forceRefresh is set. On
// refresh failure the previous value is returned unchanged; with no cached
// value the balance is zero.
func (s *Service) AccountBalance(ctx context.Context, forceRefresh bool) float64 {
	now := s.now()
	if !forceRefresh {
		if v, ok := s.balance.fresh(now); ok {
			return v
		}
	}

	payload, err := s.fetcher.Resolve(ctx, "/customers/"+s.customerID+"/balance")
	if err != nil {
		s.logger.Warn("balance refresh failed", "error", err)
		return s.staleBalance()
	}

	var resp struct {
		Balance *flexNumber `json:"balance"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil || resp.Balance == nil || math.IsNaN(float64(*resp.Balance)) {
		s.logger.Warn("balance payload malformed", "error", err)
		return s.staleBalance()
	}

	value := float64(*resp.Balance)
	s.balance.store(value, s.now())

	return value
}

func (s *Service) staleBalance() float64 {
	if v, ok := s.balance.last(); ok {
		return v
	}
	return 0
}

// Transactions returns the normalized transaction history. Freshness and
// degradation follow the same policy as AccountBalance, except the final
// fallback is the fixed mock list rather than an empty one. The mock list
// is never written into the cache.
func (s *Service) Transactions(ctx context.Context, forceRefresh bool) []api.Transaction {
	now := s.now()
	if !forceRefresh {
		if v, ok := s.transactions.fresh(now); ok {
			return v
		}
	}

	payload, err := s.fetcher.Resolve(ctx, "/customers/"+s.customerID+"/transactions")
	if err != nil {
		s.logger.Warn("transactions refresh failed", "error", err)
		return s.staleTransactions()
	}

	normalized := normalizeTransactions(payload, s.now())
	if len(normalized) == 0 {
		s.logger.Warn("transactions payload empty or unrecognized")
		return s.staleTransactions()
	}

	s.transactions.store(normalized, s.now())

	return normalized
}

func (s *Service) staleTransactions() []api.Transaction {
	if v, ok := s.transactions.last(); ok {
		return v
	}
	return MockTransactions()
}
