// Package oddsfeed retrieves correct-score squares markets from a remote odds provider.
package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/squares-ev/internal/config"
	"github.com/yourusername/squares-ev/internal/logger"
	"github.com/yourusername/squares-ev/internal/metrics"
	"github.com/yourusername/squares-ev/internal/models"
	"github.com/yourusername/squares-ev/internal/probability"
)

const sourceName = "odds_feed"

// Client fetches market matrices from the odds feed.
type Client struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	authHeader string
	marketA    string
	marketB    string
	cache      *PairCache
	log        *logger.FeedLogger
}

// NewClient creates an odds feed client from configuration.
func NewClient(cfg config.OddsFeedConfig, httpClient *RateLimitedHTTPClient, log *logrus.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient(HTTPClientConfigFrom(cfg), log)
	}
	authHeader := cfg.AuthHeader
	if authHeader == "" {
		authHeader = "X-API-Key"
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		authHeader: authHeader,
		marketA:    cfg.MarketA,
		marketB:    cfg.MarketB,
		cache:      NewPairCache(time.Duration(cfg.CacheTTLSeconds) * time.Second),
		log:        logger.NewFeedLogger(log),
	}
}

// Markets returns the configured market names in blend order.
func (c *Client) Markets() (string, string) {
	return c.marketA, c.marketB
}

// Healthy reports whether the circuit breaker is letting requests through.
func (c *Client) Healthy() bool {
	return !c.httpClient.CircuitOpen()
}

// CacheStats exposes the pair cache statistics.
func (c *Client) CacheStats() CacheStats {
	return c.cache.Stats()
}

// FetchMarket retrieves a single market for an event.
func (c *Client) FetchMarket(ctx context.Context, eventID, market string) (*models.MarketOdds, error) {
	start := time.Now()
	odds, err := c.fetchMarket(ctx, eventID, market)
	elapsed := time.Since(start)

	metrics.RecordFeedFetch(market, err == nil, elapsed.Seconds())
	if err != nil {
		c.log.LogFetchFailed(eventID, market, err)
		return nil, err
	}

	quotes := models.GridSize*models.GridSize - len(odds.Matrix.Missing())
	overround, oerr := probability.Overround(&odds.Matrix)
	if oerr == nil {
		metrics.UpdateMarketOverround(market, overround)
	}
	c.log.LogMarketFetched(eventID, market, quotes, overround, float64(elapsed.Microseconds())/1000)
	return odds, nil
}

func (c *Client) fetchMarket(ctx context.Context, eventID, market string) (*models.MarketOdds, error) {
	if c.baseURL == "" {
		return nil, NewFeedError(sourceName, ErrCodeUnknown, "base_url is not configured", nil)
	}

	endpoint := fmt.Sprintf("%s/v1/events/%s/markets/%s/squares", c.baseURL, url.PathEscape(eventID), url.PathEscape(market))
	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers[c.authHeader] = c.apiKey
	}

	resp, err := c.httpClient.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, NewFeedError(sourceName, ErrCodeNetworkError, "failed to fetch market "+market, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewFeedError(sourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewFeedError(sourceName, ErrCodeNotFound, fmt.Sprintf("market %s not found for event %s", market, eventID), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewFeedError(sourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewFeedError(sourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, NewFeedError(sourceName, ErrCodeUnknown, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var body SquaresResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, NewFeedError(sourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	odds, err := body.toMarketOdds()
	if err != nil {
		return nil, NewFeedError(sourceName, ErrCodeInvalidData, "invalid market "+market, err)
	}
	if odds.EventID == "" {
		odds.EventID = eventID
	}
	if odds.Market == "" {
		odds.Market = market
	}
	return odds, nil
}

// FetchPair retrieves both configured markets concurrently. Either failure
// fails the pair. Successful pairs are cached per event.
func (c *Client) FetchPair(ctx context.Context, eventID string) (*models.OddsPair, error) {
	if pair, ok := c.cache.Get(eventID); ok {
		metrics.RecordFeedCacheHit()
		c.log.LogCacheHit(eventID)
		return pair, nil
	}

	pair, err := c.fetchPair(ctx, eventID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(eventID, pair)
	return pair, nil
}

// RefreshPair bypasses the cache and stores the fresh result.
func (c *Client) RefreshPair(ctx context.Context, eventID string) (*models.OddsPair, error) {
	c.cache.Invalidate(eventID)
	return c.FetchPair(ctx, eventID)
}

func (c *Client) fetchPair(ctx context.Context, eventID string) (*models.OddsPair, error) {
	var a, b *models.MarketOdds

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := c.FetchMarket(gctx, eventID, c.marketA)
		if err != nil {
			return err
		}
		a = m
		return nil
	})
	g.Go(func() error {
		m, err := c.FetchMarket(gctx, eventID, c.marketB)
		if err != nil {
			return err
		}
		b = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch odds pair for %s: %w", eventID, err)
	}

	return &models.OddsPair{A: *a, B: *b, FetchedAt: time.Now().UTC()}, nil
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() error {
	return c.httpClient.Close()
}
