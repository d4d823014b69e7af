package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormFeePaymentRepository reads the payment ledger using GORM.
// Payments are written only through GormFeeBillRepository.RecordPayment.
type GormFeePaymentRepository struct {
	db *gorm.DB
}

// NewGormFeePaymentRepository creates a new GormFeePaymentRepository
func NewGormFeePaymentRepository(db *gorm.DB) *GormFeePaymentRepository {
	return &GormFeePaymentRepository{db: db}
}

// FindByIDForTenant finds a payment by ID within a school
func (r *GormFeePaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.FeePayment, error) {
	var model models.FeePaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByBill lists a bill's payments in the order they were recorded
func (r *GormFeePaymentRepository) FindByBill(ctx context.Context, tenantID, billID uuid.UUID) ([]fee.FeePayment, error) {
	var rows []models.FeePaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bill_id = ?", tenantID, billID).
		Order("created_at ASC, payment_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]fee.FeePayment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// SumByBill totals the payments of a bill
func (r *GormFeePaymentRepository) SumByBill(ctx context.Context, tenantID, billID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&models.FeePaymentModel{}).
		Select("COALESCE(SUM(amount_paid), 0)").
		Where("tenant_id = ? AND bill_id = ?", tenantID, billID).
		Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Ensure GormFeePaymentRepository implements FeePaymentRepository
var _ fee.FeePaymentRepository = (*GormFeePaymentRepository)(nil)
