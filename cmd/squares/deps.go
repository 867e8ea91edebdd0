package main

import (
	"fmt"
	"io"
	"os"

	"github.com/yourusername/squares-ev/internal/grid"
	"github.com/yourusername/squares-ev/internal/names"
	"github.com/yourusername/squares-ev/internal/oddsfeed"
	"github.com/yourusername/squares-ev/internal/report"
	"github.com/yourusername/squares-ev/internal/service"
)

// buildService wires the extractor, builder and (when enabled) the odds feed
// client from configuration. The client is nil when the feed is disabled.
func buildService() (*service.AnalysisService, *oddsfeed.Client, error) {
	normalizer, err := names.NewNormalizer(cfg.Names.Rules)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid name rules: %w", err)
	}

	extractor := grid.NewExtractor(grid.Config{
		Normalizer:      normalizer,
		HomePlaceholder: cfg.Pool.HomePlaceholder,
		AwayPlaceholder: cfg.Pool.AwayPlaceholder,
	})

	var (
		client *oddsfeed.Client
		odds   service.OddsSource
	)
	if cfg.OddsFeed.Enabled {
		httpClient := oddsfeed.NewRateLimitedHTTPClient(oddsfeed.HTTPClientConfigFrom(cfg.OddsFeed), appLog)
		client = oddsfeed.NewClient(cfg.OddsFeed, httpClient, appLog)
		odds = client
	}

	svc := service.NewAnalysisService(report.NewBuilder(extractor), odds, service.Settings{
		PricePerSquare: cfg.Pool.PricePerSquare,
		Weights:        cfg.Weights(),
		EventID:        cfg.OddsFeed.EventID,
	}, appLog)
	return svc, client, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
