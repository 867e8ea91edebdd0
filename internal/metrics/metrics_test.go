package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordAnalysis(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(AnalysesTotal.WithLabelValues("ok"))
	RecordAnalysis("ok", 0.001)
	assert.Equal(t, before+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues("ok")))

	rejected := testutil.ToFloat64(AnalysesTotal.WithLabelValues("invalid_odds"))
	RecordAnalysis("invalid_odds", 0)
	assert.Equal(t, rejected+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues("invalid_odds")))
}

func TestRecordFeedFetch(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name    string
		success bool
		outcome string
	}{
		{name: "success", success: true, outcome: "success"},
		{name: "failure", success: false, outcome: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(FeedFetchesTotal.WithLabelValues("final", tt.outcome))
			RecordFeedFetch("final", tt.success, 0.2)
			assert.Equal(t, before+1, testutil.ToFloat64(FeedFetchesTotal.WithLabelValues("final", tt.outcome)))
		})
	}
}

func TestGauges(t *testing.T) {
	InitRegistry()

	UpdateBoardParticipants(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(BoardParticipants))

	UpdateMarketOverround("half", 0.12)
	assert.InDelta(t, 0.12, testutil.ToFloat64(MarketOverround.WithLabelValues("half")), 1e-9)

	start := testutil.ToFloat64(WebsocketClients)
	IncWebsocketClients()
	IncWebsocketClients()
	DecWebsocketClients()
	assert.Equal(t, start+1, testutil.ToFloat64(WebsocketClients))
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordExtraction(0.0002)
	RecordFeedCacheHit()
	RecordCircuitBreakerTrip()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "squares_ev_boards_extracted_total"))
	assert.True(t, strings.Contains(body, "squares_ev_feed_cache_hits_total"))
	assert.True(t, strings.Contains(body, "squares_ev_circuit_breaker_trips_total"))
}
