// Package fetch retrieves JSON from the upstream banking API through a set
// of named network strategies, racing them and remembering which one wins.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NetworkError reports the failure of a single fetch strategy.
type NetworkError struct {
	Strategy string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.Strategy, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Strategy is one concrete mechanism for retrieving JSON from a URL.
// Strategies are plain data: nothing prevents constructing a fresh list
// per call. A strategy never retries internally; fallback is the
// resolver's job.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context, url string) (json.RawMessage, error)
}

const (
	allOriginsBase = "https://api.allorigins.win/get?url="
	corsProxyBase  = "https://corsproxy.io/?"
)

// DefaultStrategies returns the standard strategy list: a direct call
// followed by two public CORS-relay fallbacks. The direct strategy must
// stay first; the resolver's local shortcut relies on its position.
func DefaultStrategies(client *http.Client) []Strategy {
	if client == nil {
		client = http.DefaultClient
	}

	return []Strategy{
		{
			Name: "direct",
			Fetch: func(ctx context.Context, target string) (json.RawMessage, error) {
				headers := http.Header{"Accept": []string{"application/json"}}
				// The ngrok interstitial warning page breaks JSON clients;
				// the bypass header is only safe on ngrok hosts.
				if strings.Contains(target, "ngrok-free.app") {
					headers.Set("ngrok-skip-browser-warning", "true")
				}
				body, err := getJSON(ctx, client, target, headers)
				if err != nil {
					return nil, &NetworkError{Strategy: "direct", Err: err}
				}
				return body, nil
			},
		},
		{
			Name: "allorigins",
			Fetch: func(ctx context.Context, target string) (json.RawMessage, error) {
				// Cache buster: the relay aggressively caches wrapped responses.
				busted := fmt.Sprintf("%s?t=%d", target, time.Now().UnixMilli())
				wrapped := allOriginsBase + url.QueryEscape(busted)

				body, err := getJSON(ctx, client, wrapped, nil)
				if err != nil {
					return nil, &NetworkError{Strategy: "allorigins", Err: err}
				}

				// The relay wraps the target body as a JSON-encoded string
				// under "contents"; it must re-parse as JSON.
				var envelope struct {
					Contents string `json:"contents"`
				}
				if err := json.Unmarshal(body, &envelope); err != nil {
					return nil, &NetworkError{Strategy: "allorigins", Err: fmt.Errorf("decoding envelope: %w", err)}
				}
				if envelope.Contents == "" {
					return nil, &NetworkError{Strategy: "allorigins", Err: fmt.Errorf("no contents in relay response")}
				}
				payload := json.RawMessage(envelope.Contents)
				if !json.Valid(payload) {
					return nil, &NetworkError{Strategy: "allorigins", Err: fmt.Errorf("relay contents are not valid JSON")}
				}
				return payload, nil
			},
		},
		{
			Name: "corsproxy",
			Fetch: func(ctx context.Context, target string) (json.RawMessage, error) {
				body, err := getJSON(ctx, client, corsProxyBase+url.QueryEscape(target), nil)
				if err != nil {
					return nil, &NetworkError{Strategy: "corsproxy", Err: err}
				}
				return body, nil
			},
		},
	}
}

// getJSON performs a GET and returns the body for any 2xx response.
func getJSON(ctx context.Context, client *http.Client, target string, headers http.Header) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return json.RawMessage(body), nil
}
