package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type funcExecutor struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, job *Job, call int) error
}

func (e *funcExecutor) Execute(ctx context.Context, job *Job) error {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.mu.Unlock()
	return e.fn(ctx, job, call)
}

func (e *funcExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func testConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentJobs: 2,
		JobTimeout:        time.Second,
		RetryAttempts:     2,
		RetryDelay:        10 * time.Millisecond,
		QueueSize:         10,
	}
}

func TestJob_Lifecycle(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(tenantID, JobTypeGenerateBills, shared.Period{Month: 3, Year: 2024}, 1)

	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, tenantID.String()+":generate_bills:2024-03", job.Key())

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.True(t, job.ShouldRetry())
	job.ScheduleRetry(time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.Error)

	job.Start()
	job.Fail("boom again")
	assert.False(t, job.ShouldRetry())

	job.Start()
	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestScheduler_SubmitRequiresRunning(t *testing.T) {
	s := NewScheduler(testConfig(), &funcExecutor{fn: func(context.Context, *Job, int) error { return nil }}, zap.NewNop())

	err := s.SubmitJob(NewJob(uuid.New(), JobTypeGenerateBills, shared.Period{Month: 1, Year: 2024}, 0))
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_ExecutesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[uuid.UUID]JobType)
	exec := &funcExecutor{fn: func(_ context.Context, job *Job, _ int) error {
		mu.Lock()
		seen[job.TenantID] = job.Type
		mu.Unlock()
		return nil
	}}
	s := NewScheduler(testConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	a, b := uuid.New(), uuid.New()
	_, err := s.Schedule(a, JobTypeGenerateBills, shared.Period{Month: 4, Year: 2024})
	require.NoError(t, err)
	_, err = s.Schedule(b, JobTypeGenerateSalaries, shared.Period{Month: 3, Year: 2024})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return exec.Calls() == 2 }, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, JobTypeGenerateBills, seen[a])
	assert.Equal(t, JobTypeGenerateSalaries, seen[b])
}

func TestScheduler_RetriesFailedJob(t *testing.T) {
	exec := &funcExecutor{fn: func(_ context.Context, _ *Job, call int) error {
		if call == 1 {
			return errors.New("database unavailable")
		}
		return nil
	}}
	s := NewScheduler(testConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	_, err := s.Schedule(uuid.New(), JobTypeGenerateBills, shared.Period{Month: 4, Year: 2024})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return exec.Calls() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_GivesUpAfterRetries(t *testing.T) {
	exec := &funcExecutor{fn: func(context.Context, *Job, int) error { return errors.New("still failing") }}
	cfg := testConfig()
	cfg.RetryAttempts = 1
	s := NewScheduler(cfg, exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	_, err := s.Schedule(uuid.New(), JobTypeGenerateSalaries, shared.Period{Month: 4, Year: 2024})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return exec.Calls() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, exec.Calls())
}

func TestScheduler_QueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	exec := &funcExecutor{fn: func(ctx context.Context, _ *Job, _ int) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}
	cfg := testConfig()
	cfg.MaxConcurrentJobs = 1
	cfg.QueueSize = 1
	s := NewScheduler(cfg, exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))

	period := shared.Period{Month: 4, Year: 2024}
	_, err := s.Schedule(uuid.New(), JobTypeGenerateBills, period)
	require.NoError(t, err)
	<-started

	_, err = s.Schedule(uuid.New(), JobTypeGenerateBills, period)
	require.NoError(t, err)
	_, err = s.Schedule(uuid.New(), JobTypeGenerateBills, period)
	assert.ErrorIs(t, err, ErrJobQueueFull)

	close(release)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(testConfig(), &funcExecutor{fn: func(context.Context, *Job, int) error { return nil }}, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
