package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/squares-ev/internal/service"
)

type stubRefresher struct {
	calls atomic.Int32
	err   error
}

func (s *stubRefresher) Refresh(ctx context.Context, force bool) (*service.Analysis, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &service.Analysis{ID: "a-1"}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestScheduleRejectsBadExpression(t *testing.T) {
	s := NewScheduler(&stubRefresher{}, quietLogger())
	assert.Error(t, s.ScheduleOddsRefresh("not a cron"))
}

func TestStartRequiresJobs(t *testing.T) {
	s := NewScheduler(&stubRefresher{}, quietLogger())
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&stubRefresher{}, quietLogger())
	require.NoError(t, s.ScheduleOddsRefresh("*/5 * * * *"))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.NextRun().IsZero())

	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleOddsRefresh("* * * * *"))

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestRunOnce(t *testing.T) {
	ok := &stubRefresher{}
	require.NoError(t, NewScheduler(ok, quietLogger()).RunOnce(context.Background()))
	assert.Equal(t, int32(1), ok.calls.Load())

	noBoard := &stubRefresher{err: service.ErrNoBoard}
	assert.NoError(t, NewScheduler(noBoard, quietLogger()).RunOnce(context.Background()))

	pending := &stubRefresher{err: service.ErrAnalysisPending}
	assert.NoError(t, NewScheduler(pending, quietLogger()).RunOnce(context.Background()))

	boom := errors.New("feed down")
	failing := &stubRefresher{err: boom}
	assert.ErrorIs(t, NewScheduler(failing, quietLogger()).RunOnce(context.Background()), boom)
}

func TestNextRunSkipsUnscheduledEntries(t *testing.T) {
	s := NewScheduler(&stubRefresher{}, quietLogger())
	require.NoError(t, s.ScheduleOddsRefresh("*/5 * * * *"))
	require.NoError(t, s.ScheduleOddsRefresh("*/10 * * * *"))
	s.cron.Remove(s.jobIDs[0])

	require.NoError(t, s.Start())
	defer s.Stop()

	next := s.NextRun()
	require.False(t, next.IsZero())
	assert.Equal(t, 0, next.Minute()%10)
}

type emptyRefresher struct{}

func (emptyRefresher) Refresh(ctx context.Context, force bool) (*service.Analysis, error) {
	return nil, nil
}

func TestRunOnceWithoutAnalysis(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.NoError(t, NewScheduler(emptyRefresher{}, quietLogger()).RunOnce(context.Background()))
	})
}
