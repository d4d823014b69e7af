package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// Versioning is the time-bounded identity shared by every version of a catalog
// component. Versions of one group form a chain where each EffectiveTo equals
// the next version's EffectiveFrom; only the last one is open (EffectiveTo nil).
type Versioning struct {
	VersionGroupID uuid.UUID
	VersionNumber  int
	EffectiveFrom  time.Time
	EffectiveTo    *time.Time
	// GroupStart is EffectiveFrom of version 1, carried forward on every hike
	GroupStart time.Time
}

// NewVersioning opens version 1 of a new group
func NewVersioning(effectiveFrom time.Time) Versioning {
	from := shared.DateOf(effectiveFrom)
	return Versioning{
		VersionGroupID: uuid.New(),
		VersionNumber:  1,
		EffectiveFrom:  from,
		GroupStart:     from,
	}
}

// IsOpen reports whether this is the current version of its group
func (v *Versioning) IsOpen() bool {
	return v.EffectiveTo == nil
}

// Covers is the half-open test from <= d < to
func (v *Versioning) Covers(d time.Time) bool {
	d = shared.DateOf(d)
	if d.Before(v.EffectiveFrom) {
		return false
	}
	return v.EffectiveTo == nil || d.Before(*v.EffectiveTo)
}

// successor closes v at from and returns the versioning of the next version
func (v *Versioning) successor(from time.Time) (Versioning, error) {
	if !v.IsOpen() {
		return Versioning{}, shared.NewDomainError(shared.CodeInvalidState, "Only the current version can be hiked")
	}
	from = shared.DateOf(from)
	if !from.After(v.EffectiveFrom) {
		return Versioning{}, shared.ErrInvalidEffectiveDate
	}
	closedAt := from
	v.EffectiveTo = &closedAt
	return Versioning{
		VersionGroupID: v.VersionGroupID,
		VersionNumber:  v.VersionNumber + 1,
		EffectiveFrom:  from,
		GroupStart:     v.GroupStart,
	}, nil
}
