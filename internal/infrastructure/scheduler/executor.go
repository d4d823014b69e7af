package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	feeapp "github.com/schoolfee/backend/internal/application/fee"
	payrollapp "github.com/schoolfee/backend/internal/application/payroll"
	"go.uber.org/zap"
)

// BillGenerator generates a month of fee bills for a school
type BillGenerator interface {
	GenerateBills(ctx context.Context, tenantID uuid.UUID, req feeapp.GenerateBillsRequest) (*feeapp.GenerateBillsResult, error)
}

// SalaryGenerator generates a month of salary records for a school
type SalaryGenerator interface {
	GenerateSalaries(ctx context.Context, tenantID uuid.UUID, month, year int) (*payrollapp.GenerateSalariesResult, error)
}

// BatchExecutor dispatches jobs to the billing and payroll services.
// Per-student and per-teacher failures are reported by the services and do
// not fail the job; only an error for the whole run triggers a retry.
type BatchExecutor struct {
	bills    BillGenerator
	salaries SalaryGenerator
	logger   *zap.Logger
}

// NewBatchExecutor creates a new BatchExecutor. Either generator may be nil
// when that batch is not scheduled.
func NewBatchExecutor(bills BillGenerator, salaries SalaryGenerator, logger *zap.Logger) *BatchExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchExecutor{bills: bills, salaries: salaries, logger: logger}
}

// Execute runs the job
func (e *BatchExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeGenerateBills:
		if e.bills == nil {
			return fmt.Errorf("%w: %s", ErrExecutorNotConfigured, job.Type)
		}
		result, err := e.bills.GenerateBills(ctx, job.TenantID, feeapp.GenerateBillsRequest{
			Month: job.Period.Month,
			Year:  job.Period.Year,
		})
		if err != nil {
			return err
		}
		e.logger.Info("Scheduled bill generation finished",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("period", result.Period),
			zap.Int("generated", result.BillsGenerated),
			zap.Int("skipped", result.SkippedExisting),
			zap.Int("failed", len(result.Failures)),
		)
		return nil

	case JobTypeGenerateSalaries:
		if e.salaries == nil {
			return fmt.Errorf("%w: %s", ErrExecutorNotConfigured, job.Type)
		}
		result, err := e.salaries.GenerateSalaries(ctx, job.TenantID, job.Period.Month, job.Period.Year)
		if err != nil {
			return err
		}
		e.logger.Info("Scheduled salary generation finished",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("period", result.Period),
			zap.Int("generated", result.RecordsGenerated),
			zap.Int("failed", len(result.Failures)),
		)
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrInvalidJobType, job.Type)
	}
}
