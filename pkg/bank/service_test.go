package bank

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher scripts Resolve responses and counts attempts.
type fakeFetcher struct {
	payload json.RawMessage
	err     error
	calls   int
}

func (f *fakeFetcher) Resolve(_ context.Context, _ string) (json.RawMessage, error) {
	f.calls++
	return f.payload, f.err
}

// testClock is an adjustable clock for freshness-window tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(fetcher Fetcher, clock *testClock) *Service {
	return NewService(fetcher, Config{
		CustomerID: "cust-1",
		Now:        clock.Now,
	}, nil)
}

func TestAccountBalanceCachesWithinWindow(t *testing.T) {
	fetcher := &fakeFetcher{payload: json.RawMessage(`{"balance":"123.45"}`)}
	clock := &testClock{now: testNow}
	s := newTestService(fetcher, clock)

	ctx := context.Background()

	// Empty cache: fetches, parses, caches.
	assert.Equal(t, 123.45, s.AccountBalance(ctx, false))
	require.Equal(t, 1, fetcher.calls)

	// Immediate second call: cache hit, zero network attempts.
	assert.Equal(t, 123.45, s.AccountBalance(ctx, false))
	assert.Equal(t, 1, fetcher.calls)

	// Still inside the five minute window.
	clock.advance(4 * time.Minute)
	assert.Equal(t, 123.45, s.AccountBalance(ctx, false))
	assert.Equal(t, 1, fetcher.calls)

	// Window expired: refetches.
	clock.advance(2 * time.Minute)
	s.AccountBalance(ctx, false)
	assert.Equal(t, 2, fetcher.calls)
}

func TestAccountBalanceForceRefresh(t *testing.T) {
	fetcher := &fakeFetcher{payload: json.RawMessage(`{"balance":100}`)}
	clock := &testClock{now: testNow}
	s := newTestService(fetcher, clock)

	ctx := context.Background()
	s.AccountBalance(ctx, false)
	s.AccountBalance(ctx, true)
	s.AccountBalance(ctx, true)

	assert.Equal(t, 3, fetcher.calls, "forced calls must always hit the network")
}

func TestAccountBalanceStaleIfError(t *testing.T) {
	fetcher := &fakeFetcher{payload: json.RawMessage(`{"balance":"77.10"}`)}
	clock := &testClock{now: testNow}
	s := newTestService(fetcher, clock)

	ctx := context.Background()
	require.Equal(t, 77.10, s.AccountBalance(ctx, false))

	// Refresh fails after the window expires: the stale value survives.
	fetcher.payload = nil
	fetcher.err = errors.New("network down")
	clock.advance(10 * time.Minute)

	assert.Equal(t, 77.10, s.AccountBalance(ctx, false))
}

func TestAccountBalanceDefaultsToZero(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("network down")}
	clock := &testClock{now: testNow}
	s := newTestService(fetcher, clock)

	assert.Zero(t, s.AccountBalance(context.Background(), false))
}

func TestAccountBalanceMalformedPayload(t *testing.T) {
	fetcher := &fakeFetcher{payload: json.RawMessage(`{"balance":"12.00"}`)}
	clock := &testClock{now: testNow}
	s := newTestService(fetcher, clock)

	ctx := context.Background()
	require.Equal(t, 12.00, s.AccountBalance(ctx, false))

	fetcher.payload = json.RawMessage(`{"unexpected":true}`)
	clock.advance(10 * time.Minute)

	assert.Equal(t, 12.00, s.AccountBalance(ctx, false), "malformed payload falls back to stale cache")
}

func TestTransactionsCachesAndRefreshes(t *testing.T) {
	fetcher := &fakeFetcher{payload: json.RawMessage(`[{"merchant_name":"Uber","transaction_type":"DEBIT","amount":"24.50"}]`)}
	clock := &testClock{now: testNow}
	s := newTestService(fetcher, clock)

	ctx := context.Background()

	first := s.Transactions(ctx, false)
	require.Len(t, first, 1)
	assert.Equal(t, "Uber", first[0].Title)
	assert.Equal(t, -24.50, first[0].Amount)
	require.Equal(t, 1, fetcher.calls)

	second := s.Transactions(ctx, false)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.calls)

	s.Transactions(ctx, true)
	assert.Equal(t, 2, fetcher.calls)
}

func TestTransactionsStaleIfError(t *testing.T) {
	fetcher := &fakeFetcher{payload: json.RawMessage(`[{"merchant_name":"Uber","transaction_type":"DEBIT","amount":"24.50"}]`)}
	clock := &testClock{now: testNow}
	s := newTestService(fetcher, clock)

	ctx := context.Background()
	cached := s.Transactions(ctx, false)
	require.Len(t, cached, 1)

	fetcher.payload = nil
	fetcher.err = errors.New("network down")
	clock.advance(10 * time.Minute)

	assert.Equal(t, cached, s.Transactions(ctx, false))
}

func TestTransactionsFallBackToMock(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
		err     error
	}{
		{"resolver failure", nil, errors.New("network down")},
		{"empty list", json.RawMessage(`[]`), nil},
		{"unrecognized shape", json.RawMessage(`{"rows":[]}`), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &fakeFetcher{payload: tc.payload, err: tc.err}
			clock := &testClock{now: testNow}
			s := newTestService(fetcher, clock)

			out := s.Transactions(context.Background(), false)
			assert.Equal(t, MockTransactions(), out)
		})
	}
}
