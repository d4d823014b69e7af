package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// Error codes specific to payroll
const CodeRecordAlreadyExists = "RECORD_ALREADY_EXISTS"

// ErrRecordAlreadyExists is returned when a record for the teacher and
// period was inserted concurrently
var ErrRecordAlreadyExists = shared.NewDomainError(CodeRecordAlreadyExists, "A salary record already exists for this teacher and period")

// SalaryStructureRepository persists structure versions
type SalaryStructureRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalaryStructure, error)
	// FindCurrent returns the open version or ErrNotFound
	FindCurrent(ctx context.Context, tenantID, teacherID uuid.UUID) (*SalaryStructure, error)
	// FindEffective returns the version covering asOf or ErrNotFound
	FindEffective(ctx context.Context, tenantID, teacherID uuid.UUID, asOf time.Time) (*SalaryStructure, error)
	ListVersions(ctx context.Context, tenantID, teacherID uuid.UUID) ([]SalaryStructure, error)
	Create(ctx context.Context, s *SalaryStructure) error
	SaveWithLock(ctx context.Context, s *SalaryStructure) error
	// Supersede closes previous and inserts next atomically
	Supersede(ctx context.Context, previous, next *SalaryStructure) error
}

// SalaryRecordFilter filters record listings
type SalaryRecordFilter struct {
	shared.Filter
	TeacherID *uuid.UUID
	Status    *SalaryStatus
	Month     *int
	Year      *int
}

// SalaryRecordRepository persists salary records
type SalaryRecordRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalaryRecord, error)
	FindByTeacherPeriod(ctx context.Context, tenantID, teacherID uuid.UUID, period shared.Period) (*SalaryRecord, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SalaryRecordFilter) ([]SalaryRecord, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter SalaryRecordFilter) (int64, error)
	// FindUnpaidInWindow returns records with a pending amount whose period
	// lies within [from, to]
	FindUnpaidInWindow(ctx context.Context, tenantID uuid.UUID, from, to shared.Period) ([]SalaryRecord, error)
	// Create inserts a record; a duplicate teacher/period yields ErrRecordAlreadyExists
	Create(ctx context.Context, r *SalaryRecord) error
	SaveWithLock(ctx context.Context, r *SalaryRecord) error
}
