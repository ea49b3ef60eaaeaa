package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	calls atomic.Int32
	err   error
}

func (f *fakePruner) PruneExpired(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return 2, f.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestTokenPruneJob(t *testing.T) {
	s := newTestScheduler(t)
	pruner := &fakePruner{}

	require.NoError(t, s.AddTokenPruneJob("0 * * * *", pruner))
	s.Start()

	info, ok := s.GetJob(TokenPruneJobID)
	require.True(t, ok)
	assert.Equal(t, "0 * * * *", info.Schedule)
	assert.Equal(t, JobStatusScheduled, info.Status)
	assert.False(t, info.NextRun.IsZero())

	require.NoError(t, s.RunJobNow(TokenPruneJobID))
	assert.Eventually(t, func() bool {
		info, _ := s.GetJob(TokenPruneJobID)
		return info.Status == JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), pruner.calls.Load())
	info, _ = s.GetJob(TokenPruneJobID)
	assert.Equal(t, 1, info.RunCount)
}

func TestJobFailure(t *testing.T) {
	s := newTestScheduler(t)
	pruner := &fakePruner{err: errors.New("database is locked")}

	require.NoError(t, s.AddTokenPruneJob("0 * * * *", pruner))
	s.Start()
	require.NoError(t, s.RunJobNow(TokenPruneJobID))

	assert.Eventually(t, func() bool {
		info, _ := s.GetJob(TokenPruneJobID)
		return info.Status == JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	info, _ := s.GetJob(TokenPruneJobID)
	assert.Equal(t, 1, info.ErrorCount)
	assert.Equal(t, "database is locked", info.LastError)
}

func TestAddJobValidation(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.AddJob("a", "A", "", "1h", gocron.DurationJob(time.Hour), noop))
	assert.Error(t, s.AddJob("a", "A", "", "1h", gocron.DurationJob(time.Hour), noop))
	assert.Error(t, s.AddJob("b", "B", "", "bogus", gocron.CronJob("bogus", false), noop))
	assert.Error(t, s.RunJobNow("missing"))

	assert.Len(t, s.GetJobs(), 1)
}
