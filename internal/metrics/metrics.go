// Package metrics provides the centralized Prometheus metrics registry for the squares service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "squares_ev"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BoardsExtractedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "boards_extracted_total",
		Help:      "Total number of boards extracted from pasted text",
	})
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Total number of EV analyses by outcome code",
	}, []string{"code"})
	FeedFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_fetches_total",
		Help:      "Total number of odds feed market fetches by market and outcome",
	}, []string{"market", "outcome"})
	FeedCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_cache_hits_total",
		Help:      "Total number of odds pairs served from cache",
	})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of odds feed circuit breaker trips",
	})
)

// Gauge metrics
var (
	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Number of connected websocket clients",
	})
	BoardParticipants = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "board_participants",
		Help:      "Number of distinct participants on the current board",
	})
	MarketOverround = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "market_overround",
		Help:      "Bookmaker margin of the most recently fetched market",
	}, []string{"market"})
)

// Histogram metrics
var (
	ExtractionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Duration of board extraction in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Duration of EV computation in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
	FeedFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_fetch_duration_seconds",
		Help:      "Latency of odds feed market fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"market"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BoardsExtractedTotal)
		registry.MustRegister(AnalysesTotal)
		registry.MustRegister(FeedFetchesTotal)
		registry.MustRegister(FeedCacheHitsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		registry.MustRegister(WebsocketClients)
		registry.MustRegister(BoardParticipants)
		registry.MustRegister(MarketOverround)

		registry.MustRegister(ExtractionDuration)
		registry.MustRegister(AnalysisDuration)
		registry.MustRegister(FeedFetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordExtraction records a board extraction.
func RecordExtraction(durationSeconds float64) {
	BoardsExtractedTotal.Inc()
	ExtractionDuration.Observe(durationSeconds)
}

// RecordAnalysis records an analysis attempt. code is "ok" or an error code.
func RecordAnalysis(code string, durationSeconds float64) {
	AnalysesTotal.WithLabelValues(code).Inc()
	if code == "ok" {
		AnalysisDuration.Observe(durationSeconds)
	}
}

// RecordFeedFetch records a market fetch.
func RecordFeedFetch(market string, success bool, durationSeconds float64) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	FeedFetchesTotal.WithLabelValues(market, outcome).Inc()
	FeedFetchDuration.WithLabelValues(market).Observe(durationSeconds)
}

// RecordFeedCacheHit records an odds pair served from cache.
func RecordFeedCacheHit() {
	FeedCacheHitsTotal.Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// UpdateMarketOverround sets the margin gauge for a market.
func UpdateMarketOverround(market string, overround float64) {
	MarketOverround.WithLabelValues(market).Set(overround)
}

// UpdateBoardParticipants sets the participant gauge.
func UpdateBoardParticipants(count int) {
	BoardParticipants.Set(float64(count))
}

// IncWebsocketClients increments the connected client gauge.
func IncWebsocketClients() {
	WebsocketClients.Inc()
}

// DecWebsocketClients decrements the connected client gauge.
func DecWebsocketClients() {
	WebsocketClients.Dec()
}
