package persistence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// closeVersion sets effective_to on the open row id, guarded by the
// optimistic version. version is the aggregate version after the domain
// mutation, so the stored row must still carry version-1.
func closeVersion(tx *gorm.DB, model any, tenantID, id uuid.UUID, version int, effectiveTo *time.Time, updatedAt time.Time) error {
	if effectiveTo == nil {
		return errors.New("closing version without effective_to")
	}
	result := tx.Model(model).
		Where("tenant_id = ? AND id = ? AND version = ? AND effective_to IS NULL", tenantID, id, version-1).
		Updates(map[string]any{
			"effective_to": *effectiveTo,
			"version":      version,
			"updated_at":   updatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// insertVersion inserts the successor row. A unique violation means another
// writer opened a version first.
func insertVersion(tx *gorm.DB, model any) error {
	if err := tx.Create(model).Error; err != nil {
		if isDuplicate(err) {
			return shared.ErrConcurrentModification
		}
		return err
	}
	return nil
}

// nextNumber returns prefix followed by the next five-digit sequence for the
// school, scanning the highest existing number with the same prefix.
// It must run inside the transaction that inserts the row.
func nextNumber(tx *gorm.DB, model any, column string, tenantID uuid.UUID, prefix string) (string, error) {
	var last []string
	if err := tx.Model(model).
		Where("tenant_id = ? AND "+column+" LIKE ?", tenantID, prefix+"%").
		Order(column+" DESC").
		Limit(1).
		Pluck(column, &last).Error; err != nil {
		return "", err
	}

	next := 1
	if len(last) > 0 {
		if n, err := strconv.Atoi(strings.TrimPrefix(last[0], prefix)); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}

// coveringVersions restricts a query to rows whose half-open effective range
// contains asOf
func coveringVersions(db *gorm.DB, asOf time.Time) *gorm.DB {
	d := shared.DateOf(asOf)
	return db.Where("effective_from <= ? AND (effective_to IS NULL OR effective_to > ?)", d, d)
}

// alreadyOpen is returned when the open-version unique index rejects a create
func alreadyOpen(component string) error {
	return shared.NewDomainError(shared.CodeAlreadyExists, "An open "+component+" already exists")
}
