package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// unpaidStatuses are the persisted statuses that can become overdue
var unpaidStatuses = []fee.BillStatus{fee.BillStatusPending, fee.BillStatusPartiallyPaid}

// GormFeeBillRepository implements FeeBillRepository using GORM
type GormFeeBillRepository struct {
	db *gorm.DB
}

// NewGormFeeBillRepository creates a new GormFeeBillRepository
func NewGormFeeBillRepository(db *gorm.DB) *GormFeeBillRepository {
	return &GormFeeBillRepository{db: db}
}

// FindByIDForTenant finds a bill by ID within a school
func (r *GormFeeBillRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.FeeBill, error) {
	var model models.FeeBillModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByStudentPeriod finds the bill of a student for a period
func (r *GormFeeBillRepository) FindByStudentPeriod(ctx context.Context, tenantID, studentID uuid.UUID, period shared.Period) (*fee.FeeBill, error) {
	var model models.FeeBillModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ? AND period_year = ? AND period_month = ?",
			tenantID, studentID, period.Year, period.Month).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists bills matching the filter
func (r *GormFeeBillRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.FeeBillFilter) ([]fee.FeeBill, error) {
	var rows []models.FeeBillModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FeeBillModel{}), tenantID, filter)
	if err := paginate(query, filter.Filter, FeeBillSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	bills := make([]fee.FeeBill, len(rows))
	for i := range rows {
		bills[i] = *rows[i].ToDomain()
	}
	return bills, nil
}

// CountForTenant counts bills matching the filter
func (r *GormFeeBillRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.FeeBillFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FeeBillModel{}), tenantID, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormFeeBillRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter fee.FeeBillFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.ClassGroupID != nil {
		query = query.Where("class_group_id = ?", *filter.ClassGroupID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Month != nil {
		query = query.Where("period_month = ?", *filter.Month)
	}
	if filter.Year != nil {
		query = query.Where("period_year = ?", *filter.Year)
	}
	if filter.OverdueAsOf != nil {
		query = query.Where("status IN ? AND due_date < ?", unpaidStatuses, shared.DateOf(*filter.OverdueAsOf))
	}
	return query
}

// billSummaryRow receives the aggregate query
type billSummaryRow struct {
	TotalBills         int64
	TotalNet           decimal.Decimal
	TotalPaid          decimal.Decimal
	TotalBalance       decimal.Decimal
	PendingCount       int64
	PartiallyPaidCount int64
	PaidCount          int64
	OverdueCount       int64
}

// Summarize totals the bills matching the filter. Overdue is counted as of asOf.
func (r *GormFeeBillRepository) Summarize(ctx context.Context, tenantID uuid.UUID, filter fee.FeeBillFilter, asOf time.Time) (*fee.BillSummary, error) {
	var row billSummaryRow
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FeeBillModel{}), tenantID, filter)
	if err := query.Select(`COUNT(*) AS total_bills,
		COALESCE(SUM(net_amount), 0) AS total_net,
		COALESCE(SUM(total_paid), 0) AS total_paid,
		COALESCE(SUM(balance), 0) AS total_balance,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_count,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS partially_paid_count,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS paid_count,
		COALESCE(SUM(CASE WHEN status IN ? AND due_date < ? THEN 1 ELSE 0 END), 0) AS overdue_count`,
		fee.BillStatusPending, fee.BillStatusPartiallyPaid, fee.BillStatusPaid,
		unpaidStatuses, shared.DateOf(asOf)).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	return &fee.BillSummary{
		TotalBills:         row.TotalBills,
		TotalNet:           row.TotalNet,
		TotalPaid:          row.TotalPaid,
		TotalBalance:       row.TotalBalance,
		PendingCount:       row.PendingCount,
		PartiallyPaidCount: row.PartiallyPaidCount,
		PaidCount:          row.PaidCount,
		OverdueCount:       row.OverdueCount,
	}, nil
}

// Create numbers and inserts a new bill. The number sequence is per school
// and per billing month: FB-YYYYMM-NNNNN.
func (r *GormFeeBillRepository) Create(ctx context.Context, bill *fee.FeeBill) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.FeeBillModel{}).
			Where("tenant_id = ? AND student_id = ? AND period_year = ? AND period_month = ?",
				bill.TenantID, bill.StudentID, bill.PeriodYear, bill.PeriodMonth).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fee.ErrBillAlreadyExists
		}

		prefix := fmt.Sprintf("FB-%04d%02d-", bill.PeriodYear, bill.PeriodMonth)
		number, err := nextNumber(tx, &models.FeeBillModel{}, "bill_number", bill.TenantID, prefix)
		if err != nil {
			return err
		}
		model := models.FeeBillModelFromDomain(bill)
		model.BillNumber = number
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		bill.BillNumber = number
		return nil
	})
	if err == nil || !isDuplicate(err) {
		return err
	}

	// Lost a race: either the same student and period, or the same number
	if _, findErr := r.FindByStudentPeriod(ctx, bill.TenantID, bill.StudentID, bill.Period()); findErr == nil {
		return fee.ErrBillAlreadyExists
	}
	return shared.ErrConcurrentModification
}

// SaveWithLock persists a regenerated snapshot guarded by Version
func (r *GormFeeBillRepository) SaveWithLock(ctx context.Context, bill *fee.FeeBill) error {
	result := r.db.WithContext(ctx).Model(&models.FeeBillModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", bill.TenantID, bill.ID, bill.Version-1).
		Updates(map[string]any{
			"route_id":            bill.RouteID,
			"bill_date":           bill.BillDate,
			"due_date":            bill.DueDate,
			"items":               bill.Items,
			"class_fees_total":    bill.ClassFeesTotal,
			"transport_fee_total": bill.TransportFeeTotal,
			"optional_fees_total": bill.OptionalFeesTotal,
			"custom_fees_total":   bill.CustomFeesTotal,
			"fine_total":          bill.FineTotal,
			"gross_amount":        bill.GrossAmount,
			"discount_amount":     bill.DiscountAmount,
			"scholarship_amount":  bill.ScholarshipAmount,
			"net_amount":          bill.NetAmount,
			"total_paid":          bill.TotalPaid,
			"balance":             bill.Balance,
			"status":              bill.Status,
			"paid_at":             bill.PaidAt,
			"version":             bill.Version,
			"updated_at":          bill.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// RecordPayment numbers and appends the payment, then moves the bill's
// payment fields forward under the optimistic version, all in one
// transaction. Payment numbers are FP-YYYYMMDD-NNNNN per school.
func (r *GormFeeBillRepository) RecordPayment(ctx context.Context, bill *fee.FeeBill, payment *fee.FeePayment) error {
	if payment.BillID != bill.ID {
		return errors.New("payment does not belong to bill")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.FeeBillModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", bill.TenantID, bill.ID, bill.Version-1).
			Updates(map[string]any{
				"total_paid": bill.TotalPaid,
				"balance":    bill.Balance,
				"status":     bill.Status,
				"paid_at":    bill.PaidAt,
				"version":    bill.Version,
				"updated_at": bill.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrentModification
		}

		prefix := "FP-" + payment.PaymentDate.Format("20060102") + "-"
		number, err := nextNumber(tx, &models.FeePaymentModel{}, "payment_number", payment.TenantID, prefix)
		if err != nil {
			return err
		}
		model := models.FeePaymentModelFromDomain(payment)
		model.PaymentNumber = number
		if err := tx.Create(model).Error; err != nil {
			if isDuplicate(err) {
				return shared.ErrConcurrentModification
			}
			return err
		}
		payment.PaymentNumber = number
		return nil
	})
}

// Ensure GormFeeBillRepository implements FeeBillRepository
var _ fee.FeeBillRepository = (*GormFeeBillRepository)(nil)
