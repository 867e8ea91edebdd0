// Package scheduler runs the periodic odds refresh for the live dashboard.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/squares-ev/internal/service"
)

// Refresher pulls fresh odds into the live view.
type Refresher interface {
	Refresh(ctx context.Context, force bool) (*service.Analysis, error)
}

// Scheduler manages scheduled odds refresh jobs
type Scheduler struct {
	cron       *cron.Cron
	refresher  Refresher
	logger     *logrus.Entry
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(refresher Refresher, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		refresher:  refresher,
		logger:     logger.WithField("component", "scheduler"),
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: 30 * time.Second,
	}
}

// ScheduleOddsRefresh schedules the odds refresh job on a cron expression.
func (s *Scheduler) ScheduleOddsRefresh(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.runRefresh)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("schedule", cronExpression).Info("Scheduled odds refresh job")

	return nil
}

// RunOnce performs a refresh immediately, outside the schedule.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	analysis, err := s.refresher.Refresh(ctx, false)
	switch {
	case errors.Is(err, service.ErrNoBoard):
		s.logger.Debug("Odds refreshed; no board set yet")
		return nil
	case errors.Is(err, service.ErrAnalysisPending):
		s.logger.Debug("Odds refreshed; analysis superseded by a newer update")
		return nil
	case err != nil:
		s.logger.WithError(err).Error("Odds refresh failed")
		return err
	case analysis == nil:
		return nil
	}

	s.logger.WithFields(logrus.Fields{
		"analysis_id": analysis.ID,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Odds refresh completed")
	return nil
}

func (s *Scheduler) runRefresh() {
	_ = s.RunOnce(context.Background())
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the next scheduled run time, or zero when idle.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next time.Time
	for _, id := range s.jobIDs {
		e := s.cron.Entry(id)
		if e.Next.IsZero() {
			continue
		}
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}
