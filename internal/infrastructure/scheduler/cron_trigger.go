package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// JobSubmitter queues jobs; *Scheduler implements it
type JobSubmitter interface {
	SubmitJob(job *Job) error
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// BillDay is the day of month the month's bills are generated
	BillDay int
	// SalaryDay is the day of month the previous month's salaries are generated
	SalaryDay     int
	CheckInterval time.Duration
	RetryAttempts int
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		BillDay:       1,
		SalaryDay:     1,
		CheckInterval: time.Hour,
		RetryAttempts: 3,
	}
}

// CronTrigger submits the monthly bill and salary batches for every school
type CronTrigger struct {
	config    CronTriggerConfig
	submitter JobSubmitter
	schools   directory.SchoolProvider
	logger    *zap.Logger
	now       func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	submitted map[string]struct{}
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	submitter JobSubmitter,
	schools directory.SchoolProvider,
	logger *zap.Logger,
) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:    config,
		submitter: submitter,
		schools:   schools,
		logger:    logger,
		now:       time.Now,
		submitted: make(map[string]struct{}),
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("bill_day", c.config.BillDay),
		zap.Int("salary_day", c.config.SalaryDay),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	c.checkAndTrigger(ctx)

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger submits whichever batches are due today
func (c *CronTrigger) checkAndTrigger(ctx context.Context) {
	now := c.now()
	current := shared.PeriodOf(now)

	if now.Day() == c.config.BillDay {
		c.trigger(ctx, JobTypeGenerateBills, current)
	}
	if now.Day() == c.config.SalaryDay {
		c.trigger(ctx, JobTypeGenerateSalaries, current.AddMonths(-1))
	}
}

// trigger submits the job for every school that has not had it for the period
func (c *CronTrigger) trigger(ctx context.Context, jobType JobType, period shared.Period) int {
	schoolIDs, err := c.schools.ListSchoolIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list schools for scheduled run",
			zap.String("job_type", string(jobType)),
			zap.Error(err),
		)
		return 0
	}

	count := 0
	for _, schoolID := range schoolIDs {
		job := NewJob(schoolID, jobType, period, c.config.RetryAttempts)
		key := job.Key()

		c.mu.Lock()
		_, done := c.submitted[key]
		c.mu.Unlock()
		if done {
			continue
		}

		if err := c.submitter.SubmitJob(job); err != nil {
			c.logger.Error("Failed to submit scheduled job",
				zap.String("tenant_id", schoolID.String()),
				zap.String("job_type", string(jobType)),
				zap.String("period", period.String()),
				zap.Error(err),
			)
			continue
		}

		c.mu.Lock()
		c.submitted[key] = struct{}{}
		c.mu.Unlock()
		count++
	}

	if count > 0 {
		c.logger.Info("Scheduled batch submitted",
			zap.String("job_type", string(jobType)),
			zap.String("period", period.String()),
			zap.Int("schools", count),
		)
	}
	return count
}

// TriggerNow submits the job for every school regardless of the calendar,
// still at most once per school and period
func (c *CronTrigger) TriggerNow(ctx context.Context, jobType JobType, period shared.Period) (int, error) {
	if jobType != JobTypeGenerateBills && jobType != JobTypeGenerateSalaries {
		return 0, ErrInvalidJobType
	}
	return c.trigger(ctx, jobType, period), nil
}
