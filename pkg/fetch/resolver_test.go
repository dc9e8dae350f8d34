package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// countingStrategy builds a strategy that records how many times it was
// invoked and either succeeds with payload or fails, after an optional
// delay to pin race ordering.
func countingStrategy(name string, payload string, fail bool, delay time.Duration, calls *atomic.Int32) Strategy {
	return Strategy{
		Name: name,
		Fetch: func(ctx context.Context, url string) (json.RawMessage, error) {
			calls.Add(1)
			if delay > 0 {
				time.Sleep(delay)
			}
			if fail {
				return nil, &NetworkError{Strategy: name, Err: errors.New("boom")}
			}
			return json.RawMessage(payload), nil
		},
	}
}

func TestResolveLocalBaseUsesDirectOnly(t *testing.T) {
	bases := []string{"", "/api", "http://localhost:8080", "http://127.0.0.1:9999", "http://0.0.0.0:8080"}

	for _, base := range bases {
		t.Run(fmt.Sprintf("base=%q", base), func(t *testing.T) {
			var direct, proxy atomic.Int32
			strategies := []Strategy{
				countingStrategy("direct", `{"ok":true}`, false, 0, &direct),
				countingStrategy("proxy", `{"ok":true}`, false, 0, &proxy),
			}

			r := NewResolver(base, strategies, nil)
			payload, err := r.Resolve(context.Background(), "/x")
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if string(payload) != `{"ok":true}` {
				t.Errorf("unexpected payload: %s", payload)
			}
			if direct.Load() != 1 {
				t.Errorf("direct called %d times, want 1", direct.Load())
			}
			if proxy.Load() != 0 {
				t.Errorf("proxy called %d times, want 0", proxy.Load())
			}
		})
	}
}

func TestResolveLocalBaseFailureReturnsImmediately(t *testing.T) {
	var direct, proxy atomic.Int32
	strategies := []Strategy{
		countingStrategy("direct", "", true, 0, &direct),
		countingStrategy("proxy", `{"ok":true}`, false, 0, &proxy),
	}

	r := NewResolver("http://localhost:8080", strategies, nil)
	if _, err := r.Resolve(context.Background(), "/x"); err == nil {
		t.Fatal("expected error from local direct failure")
	}
	if proxy.Load() != 0 {
		t.Errorf("proxy called %d times, want 0", proxy.Load())
	}
}

func TestRaceReturnsOnlySuccess(t *testing.T) {
	// The single succeeding strategy must win regardless of its position,
	// even when it is the slowest.
	for winner := 0; winner < 3; winner++ {
		t.Run(fmt.Sprintf("winner=%d", winner), func(t *testing.T) {
			var calls [3]atomic.Int32
			strategies := make([]Strategy, 3)
			for i := range strategies {
				payload := fmt.Sprintf(`{"idx":%d}`, i)
				strategies[i] = countingStrategy(
					fmt.Sprintf("s%d", i),
					payload,
					i != winner,
					time.Duration(i)*5*time.Millisecond,
					&calls[i],
				)
			}

			r := NewResolver("http://bank.example.com", strategies, nil)
			payload, err := r.Resolve(context.Background(), "/x")
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			want := fmt.Sprintf(`{"idx":%d}`, winner)
			if string(payload) != want {
				t.Errorf("payload = %s, want %s", payload, want)
			}
		})
	}
}

func TestMemoizedWinnerSkipsRace(t *testing.T) {
	var fast, slow atomic.Int32
	strategies := []Strategy{
		countingStrategy("fast", "", true, 0, &fast),
		countingStrategy("slow", `{"ok":1}`, false, 10*time.Millisecond, &slow),
	}

	r := NewResolver("http://bank.example.com", strategies, nil)

	// First call races; only "slow" succeeds and becomes the winner.
	if _, err := r.Resolve(context.Background(), "/x"); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}

	fastBefore := fast.Load()

	// Second call must go straight to the memoized winner.
	if _, err := r.Resolve(context.Background(), "/x"); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if fast.Load() != fastBefore {
		t.Errorf("losing strategy re-invoked on memoized fast path")
	}
	if slow.Load() != 2 {
		t.Errorf("winner called %d times, want 2", slow.Load())
	}
}

func TestWinnerFailureClearsMemoAndReRaces(t *testing.T) {
	// Winner succeeds once, then permanently fails; the other strategy
	// always succeeds. After the winner's failure the resolver must fall
	// back to racing everything instead of failing outright.
	var winnerCalls atomic.Int32
	flaky := Strategy{
		Name: "flaky",
		Fetch: func(ctx context.Context, url string) (json.RawMessage, error) {
			if winnerCalls.Add(1) == 1 {
				return json.RawMessage(`{"from":"flaky"}`), nil
			}
			return nil, errors.New("gone")
		},
	}

	var backupCalls atomic.Int32
	backup := countingStrategy("backup", `{"from":"backup"}`, false, 5*time.Millisecond, &backupCalls)

	r := NewResolver("http://bank.example.com", []Strategy{flaky, backup}, nil)

	payload, err := r.Resolve(context.Background(), "/x")
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if string(payload) != `{"from":"flaky"}` {
		t.Fatalf("unexpected first payload: %s", payload)
	}

	payload, err = r.Resolve(context.Background(), "/x")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if string(payload) != `{"from":"backup"}` {
		t.Errorf("second payload = %s, want backup result", payload)
	}
	if backupCalls.Load() == 0 {
		t.Error("backup strategy never raced after winner failure")
	}
}

func TestAllStrategiesFailed(t *testing.T) {
	var a, b atomic.Int32
	strategies := []Strategy{
		countingStrategy("a", "", true, 0, &a),
		countingStrategy("b", "", true, 0, &b),
	}

	r := NewResolver("http://bank.example.com", strategies, nil)
	_, err := r.Resolve(context.Background(), "/x")
	if !errors.Is(err, ErrAllStrategiesFailed) {
		t.Fatalf("err = %v, want ErrAllStrategiesFailed", err)
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("joined error should carry the per-strategy failures")
	}
}

func TestNoStrategies(t *testing.T) {
	r := NewResolver("http://bank.example.com", nil, nil)
	if _, err := r.Resolve(context.Background(), "/x"); !errors.Is(err, ErrNoStrategies) {
		t.Fatalf("err = %v, want ErrNoStrategies", err)
	}
}
