package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TenantCache stores serialized read models scoped to one school. A school's
// entries can be dropped together when its underlying data changes.
type TenantCache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, tenantID uuid.UUID, key string) ([]byte, bool, error)
	Set(ctx context.Context, tenantID uuid.UUID, key string, value []byte, ttl time.Duration) error
	// InvalidateTenant drops every entry of the school
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
}
