package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BillArchiver writes a JSON snapshot of every generated bill to object
// storage under bills/<school>/<period>/<bill number>.json. A regenerated
// bill overwrites its snapshot.
type BillArchiver struct {
	store  ObjectStore
	logger *zap.Logger
}

var _ shared.EventHandler = (*BillArchiver)(nil)

// NewBillArchiver creates a new BillArchiver
func NewBillArchiver(store ObjectStore, logger *zap.Logger) *BillArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillArchiver{store: store, logger: logger}
}

// EventTypes returns the events the archiver handles
func (a *BillArchiver) EventTypes() []string {
	return []string{fee.EventTypeFeeBillGenerated}
}

// Handle stores the bill snapshot carried by the event
func (a *BillArchiver) Handle(ctx context.Context, event shared.DomainEvent) error {
	generated, ok := event.(*fee.FeeBillGeneratedEvent)
	if !ok {
		return fmt.Errorf("bill archiver: unexpected event %T", event)
	}
	data, err := json.Marshal(generated)
	if err != nil {
		return fmt.Errorf("bill archiver: encode snapshot: %w", err)
	}
	key := BillSnapshotKey(generated)
	if err := a.store.Put(ctx, key, data, "application/json"); err != nil {
		return err
	}
	a.logger.Debug("Bill snapshot archived",
		zap.String("tenant_id", generated.TenantID().String()),
		zap.String("bill_number", generated.BillNumber),
		zap.String("key", key))
	return nil
}

// BillSnapshotKey is the object key of a bill's snapshot
func BillSnapshotKey(e *fee.FeeBillGeneratedEvent) string {
	return fmt.Sprintf("bills/%s/%s/%s.json", e.TenantID(), e.Period, e.BillNumber)
}
