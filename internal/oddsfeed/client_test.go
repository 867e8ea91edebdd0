package oddsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/squares-ev/internal/config"
)

func completePrices(price int) []map[string]int {
	prices := make([]map[string]int, 0, 100)
	for away := 0; away < 10; away++ {
		for home := 0; home < 10; home++ {
			prices = append(prices, map[string]int{"home_digit": home, "away_digit": away, "price": price})
		}
	}
	return prices
}

func marketBody(market string, prices interface{}) map[string]interface{} {
	return map[string]interface{}{
		"event_id":   "evt-1",
		"market":     market,
		"home_team":  "Chiefs",
		"away_team":  "Eagles",
		"updated_at": "2026-02-08T20:00:00Z",
		"prices":     prices,
	}
}

func testHTTPClient(breakerMax int) *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = breakerMax
	return NewRateLimitedHTTPClient(cfg, nil)
}

func newTestClient(baseURL string, cacheTTL int) *Client {
	cfg := config.OddsFeedConfig{
		Enabled:         true,
		BaseURL:         baseURL,
		APIKey:          "secret",
		AuthHeader:      "X-API-Key",
		MarketA:         "final",
		MarketB:         "halftime",
		CacheTTLSeconds: cacheTTL,
	}
	return NewClient(cfg, testHTTPClient(0), nil)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetchMarketParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/events/evt-1/markets/final/squares", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		writeJSON(w, marketBody("final", completePrices(-110)))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	odds, err := client.FetchMarket(context.Background(), "evt-1", "final")
	require.NoError(t, err)

	assert.Equal(t, "evt-1", odds.EventID)
	assert.Equal(t, "Chiefs", odds.HomeTeam)
	assert.Empty(t, odds.Matrix.Missing())
	v, ok := odds.Matrix.Get(3, 7)
	require.True(t, ok)
	assert.Equal(t, -110, v)
}

func TestFetchMarketKeepsPartialMatrix(t *testing.T) {
	prices := completePrices(500)[:99]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, marketBody("final", prices))
	}))
	defer srv.Close()

	odds, err := newTestClient(srv.URL, 0).FetchMarket(context.Background(), "evt-1", "final")
	require.NoError(t, err)
	require.Len(t, odds.Matrix.Missing(), 1)
	assert.Equal(t, 9, odds.Matrix.Missing()[0].Away)
	assert.Equal(t, 9, odds.Matrix.Missing()[0].Home)
}

func TestFetchMarketErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    string
	}{
		{
			name:    "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			code:    ErrCodeAuthenticationFailed,
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			code:    ErrCodeNotFound,
		},
		{
			name:    "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			code:    ErrCodeRateLimitExceeded,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusBadGateway) },
			code:    ErrCodeServerError,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "{not json")
			},
			code: ErrCodeInvalidData,
		},
		{
			name: "digit out of range",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, marketBody("final", []map[string]int{{"home_digit": 10, "away_digit": 0, "price": 100}}))
			},
			code: ErrCodeInvalidData,
		},
		{
			name: "duplicate pair",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, marketBody("final", []map[string]int{
					{"home_digit": 1, "away_digit": 2, "price": 100},
					{"home_digit": 1, "away_digit": 2, "price": 120},
				}))
			},
			code: ErrCodeInvalidData,
		},
		{
			name: "missing price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, marketBody("final", []map[string]int{{"home_digit": 1, "away_digit": 2}}))
			},
			code: ErrCodeInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(srv.URL, 0).FetchMarket(context.Background(), "evt-1", "final")
			require.Error(t, err)
			assert.Equal(t, tt.code, Code(err))

			var fe *FeedError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, "odds_feed", fe.Source)
		})
	}
}

func TestFetchMarketWithoutBaseURL(t *testing.T) {
	_, err := newTestClient("", 0).FetchMarket(context.Background(), "evt-1", "final")
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknown, Code(err))
}

func TestFetchPairFetchesBothMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/events/evt-1/markets/final/squares":
			writeJSON(w, marketBody("final", completePrices(-110)))
		case "/v1/events/evt-1/markets/halftime/squares":
			writeJSON(w, marketBody("halftime", completePrices(900)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	pair, err := newTestClient(srv.URL, 0).FetchPair(context.Background(), "evt-1")
	require.NoError(t, err)

	assert.Equal(t, "final", pair.A.Market)
	assert.Equal(t, "halftime", pair.B.Market)
	v, _ := pair.B.Matrix.Get(0, 0)
	assert.Equal(t, 900, v)
	assert.False(t, pair.FetchedAt.IsZero())
}

func TestFetchPairFailsWhenOneMarketFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/events/evt-1/markets/halftime/squares" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, marketBody("final", completePrices(-110)))
	}))
	defer srv.Close()

	pair, err := newTestClient(srv.URL, 60).FetchPair(context.Background(), "evt-1")
	require.Error(t, err)
	assert.Nil(t, pair)
	assert.Equal(t, ErrCodeNotFound, Code(err))
	assert.Contains(t, err.Error(), "halftime")
}

func TestFetchPairUsesCache(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(w, marketBody("m", completePrices(-110)))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 60)
	first, err := client.FetchPair(context.Background(), "evt-1")
	require.NoError(t, err)
	second, err := client.FetchPair(context.Background(), "evt-1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, uint64(1), client.CacheStats().Hits)

	_, err = client.RefreshPair(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int32(4), requests.Load())
}

func TestFetchPairHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, marketBody("m", completePrices(-110)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL, 0).FetchPair(ctx, "evt-1")
	require.Error(t, err)
	assert.Equal(t, ErrCodeNetworkError, Code(err))
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.OddsFeedConfig{BaseURL: srv.URL, MarketA: "a", MarketB: "b"}
	client := NewClient(cfg, testHTTPClient(2), nil)

	for i := 0; i < 2; i++ {
		_, err := client.FetchMarket(context.Background(), "evt-1", "a")
		assert.Equal(t, ErrCodeServerError, Code(err))
	}
	assert.False(t, client.Healthy())

	_, err := client.FetchMarket(context.Background(), "evt-1", "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, ErrCodeNetworkError, Code(err))
	assert.Equal(t, int32(2), requests.Load())
}

func TestRetryPolicy(t *testing.T) {
	policy := customRetryPolicy()
	ctx := context.Background()

	tests := []struct {
		status int
		retry  bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusNotImplemented, false},
	}
	for _, tt := range tests {
		retry, err := policy(ctx, &http.Response{StatusCode: tt.status}, nil)
		assert.NoError(t, err)
		assert.Equal(t, tt.retry, retry, "status %d", tt.status)
	}

	retry, _ := policy(ctx, nil, errors.New("connection reset"))
	assert.True(t, retry)
}

func TestHTTPClientConfigFrom(t *testing.T) {
	cfg := HTTPClientConfigFrom(config.OddsFeedConfig{TimeoutSeconds: 3, MaxRetries: 2, RateLimit: 1.5, CircuitBreakerMax: 4})
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 1.5, cfg.RateLimit)
	assert.Equal(t, 4, cfg.CircuitBreakerMax)

	defaults := HTTPClientConfigFrom(config.OddsFeedConfig{})
	assert.Equal(t, DefaultHTTPClientConfig().Timeout, defaults.Timeout)
}
