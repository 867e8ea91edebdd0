package logger

import (
	"github.com/sirupsen/logrus"
)

// FeedLogger provides dedicated logging for odds feed operations.
type FeedLogger struct {
	*logrus.Entry
}

// NewFeedLogger creates a new odds feed logger.
func NewFeedLogger(baseLogger *logrus.Logger) *FeedLogger {
	return &FeedLogger{
		Entry: baseLogger.WithField("component", "odds_feed"),
	}
}

// LogMarketFetched logs a fetched market.
func (fl *FeedLogger) LogMarketFetched(eventID, market string, quotes int, overround float64, durationMs float64) {
	fl.WithFields(logrus.Fields{
		"event_id":          eventID,
		"market":            market,
		"quotes":            quotes,
		"overround":         overround,
		"fetch_duration_ms": durationMs,
	}).Info("Market odds fetched")
}

// LogFetchFailed logs a failed market fetch.
func (fl *FeedLogger) LogFetchFailed(eventID, market string, err error) {
	fl.WithFields(logrus.Fields{
		"event_id": eventID,
		"market":   market,
	}).WithError(err).Error("Market odds fetch failed")
}

// LogCacheHit logs an odds pair served from cache.
func (fl *FeedLogger) LogCacheHit(eventID string) {
	fl.WithField("event_id", eventID).Debug("Odds pair served from cache")
}

// LogCircuitOpen logs the HTTP circuit breaker opening.
func (fl *FeedLogger) LogCircuitOpen(consecutiveErrors int, err error) {
	fl.WithField("consecutive_errors", consecutiveErrors).WithError(err).Error("Odds feed circuit breaker opened")
}
