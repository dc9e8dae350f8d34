package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrAllStrategiesFailed is returned when every eligible strategy fails.
	ErrAllStrategiesFailed = errors.New("all fetch strategies failed")

	// ErrNoStrategies is returned when the resolver has no strategies to
	// run. Defensive: the default strategy list is never empty.
	ErrNoStrategies = errors.New("no fetch strategies configured")
)

// Resolver resolves endpoint paths against a base URL by racing the
// configured strategies and memoizing the winner. Callers must treat any
// returned error as "use cached or mock data"; nothing below this layer
// is expected to handle strategy failures.
type Resolver struct {
	baseURL    string
	strategies []Strategy
	logger     *slog.Logger

	// winner is the index of the strategy that most recently succeeded,
	// or -1 when unknown. Guarded by mu.
	mu     sync.Mutex
	winner int
}

// NewResolver creates a resolver over the given base URL and strategies.
func NewResolver(baseURL string, strategies []Strategy, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		baseURL:    baseURL,
		strategies: strategies,
		logger:     logger,
		winner:     -1,
	}
}

// isLocalBase reports whether the base address points at a private or
// relative location that public relays cannot reach.
func isLocalBase(base string) bool {
	return base == "" ||
		strings.HasPrefix(base, "/") ||
		strings.Contains(base, "localhost") ||
		strings.Contains(base, "127.0.0.1") ||
		strings.Contains(base, "0.0.0.0")
}

// Resolve fetches the JSON payload at baseURL+endpoint.
//
// Policy, in order: a local base address restricts the attempt to the
// direct strategy; a memoized winner is tried alone and cleared on
// failure; otherwise every strategy races and the first success wins,
// claiming the memo if it is still unset. Losing attempts run to
// completion and are discarded.
func (r *Resolver) Resolve(ctx context.Context, endpoint string) (json.RawMessage, error) {
	if len(r.strategies) == 0 {
		return nil, ErrNoStrategies
	}

	fullURL := r.baseURL + endpoint

	if isLocalBase(r.baseURL) {
		r.logger.Debug("local base detected, using direct strategy only", "url", fullURL)
		payload, err := r.strategies[0].Fetch(ctx, fullURL)
		if err != nil {
			r.logger.Warn("local connection failed", "url", fullURL, "error", err)
			return nil, err
		}
		return payload, nil
	}

	if payload, ok := r.tryWinner(ctx, fullURL); ok {
		return payload, nil
	}

	return r.race(ctx, fullURL)
}

// tryWinner attempts only the memoized winning strategy. A failure clears
// the memo so the next step re-races everything.
func (r *Resolver) tryWinner(ctx context.Context, fullURL string) (json.RawMessage, bool) {
	r.mu.Lock()
	idx := r.winner
	r.mu.Unlock()

	if idx < 0 || idx >= len(r.strategies) {
		return nil, false
	}

	strategy := r.strategies[idx]
	r.logger.Debug("using memoized strategy", "strategy", strategy.Name)

	payload, err := strategy.Fetch(ctx, fullURL)
	if err != nil {
		r.logger.Warn("memoized strategy failed, resetting to race mode",
			"strategy", strategy.Name,
			"error", err,
		)
		r.mu.Lock()
		if r.winner == idx {
			r.winner = -1
		}
		r.mu.Unlock()
		return nil, false
	}

	return payload, true
}

type attempt struct {
	idx     int
	payload json.RawMessage
	err     error
}

// race launches every strategy concurrently and returns the first
// success. The first strategy to succeed claims the winner memo iff no
// winner has been recorded for this race (first-arrival semantics). If
// all strategies fail, the per-strategy errors are joined under
// ErrAllStrategiesFailed.
func (r *Resolver) race(ctx context.Context, fullURL string) (json.RawMessage, error) {
	// Buffered so losing goroutines never block after the winner returns.
	results := make(chan attempt, len(r.strategies))

	for i, strategy := range r.strategies {
		go func(idx int, s Strategy) {
			payload, err := s.Fetch(ctx, fullURL)
			results <- attempt{idx: idx, payload: payload, err: err}
		}(i, strategy)
	}

	var failures []error
	for range r.strategies {
		res := <-results
		if res.err != nil {
			failures = append(failures, res.err)
			continue
		}

		r.mu.Lock()
		if r.winner == -1 {
			r.winner = res.idx
			r.logger.Info("new winning strategy", "strategy", r.strategies[res.idx].Name)
		}
		r.mu.Unlock()

		return res.payload, nil
	}

	r.logger.Warn("all strategies failed", "url", fullURL, "errors", len(failures))

	return nil, errors.Join(append([]error{ErrAllStrategiesFailed}, failures...)...)
}
