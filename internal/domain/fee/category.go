package fee

import (
	"strings"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// FeeCategory groups class fees (tuition, lab, library...)
type FeeCategory struct {
	shared.TenantAggregateRoot
	Name         string
	Description  string
	DisplayOrder int
}

// NewFeeCategory creates a new fee category
func NewFeeCategory(tenantID uuid.UUID, name, description string, displayOrder int) (*FeeCategory, error) {
	c := &FeeCategory{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := c.apply(name, description, displayOrder); err != nil {
		return nil, err
	}
	return c, nil
}

// Update renames or reorders the category. Bills keep the item names they
// were generated with, so a rename never touches history.
func (c *FeeCategory) Update(name, description string, displayOrder int) error {
	if err := c.apply(name, description, displayOrder); err != nil {
		return err
	}
	c.IncrementVersion()
	return nil
}

func (c *FeeCategory) apply(name, description string, displayOrder int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("category name is required")
	}
	if len(name) > 100 {
		return shared.NewValidationError("category name must be at most 100 characters")
	}
	if displayOrder < 0 {
		return shared.NewValidationError("display order cannot be negative")
	}
	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.DisplayOrder = displayOrder
	return nil
}
