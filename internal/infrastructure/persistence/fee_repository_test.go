package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormFeeCategoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFeeCategoryRepository(db)
	classFees := NewGormClassFeeRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	tuition, err := fee.NewFeeCategory(tenantID, "Tuition", "", 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tuition))
	lab, err := fee.NewFeeCategory(tenantID, "Lab", "", 2)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, lab))

	t.Run("finds by id within the school only", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, tuition.ID)
		require.NoError(t, err)
		assert.Equal(t, "Tuition", found.Name)

		_, err = repo.FindByIDForTenant(ctx, uuid.New(), tuition.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists ordered by display order", func(t *testing.T) {
		list, err := repo.FindAllForTenant(ctx, tenantID, shared.Filter{OrderBy: "display_order", OrderDir: "asc"})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Tuition", list[0].Name)

		count, err := repo.CountForTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("detects name clashes case-insensitively", func(t *testing.T) {
		exists, err := repo.ExistsByName(ctx, tenantID, "tuition", nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByName(ctx, tenantID, "tuition", &tuition.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("rename keeps the id", func(t *testing.T) {
		require.NoError(t, lab.Update("Science Lab", "", 2))
		require.NoError(t, repo.Save(ctx, lab))

		names, err := repo.FindNames(ctx, tenantID, []uuid.UUID{lab.ID, tuition.ID})
		require.NoError(t, err)
		assert.Equal(t, "Science Lab", names[lab.ID])
		assert.Equal(t, "Tuition", names[tuition.ID])
	})

	t.Run("referenced categories are reported", func(t *testing.T) {
		cf, err := fee.NewClassFee(tenantID, uuid.New(), tuition.ID, decimal.NewFromInt(3000), fee.CycleMonthly, 10, date(2024, 4, 1), "")
		require.NoError(t, err)
		require.NoError(t, classFees.Create(ctx, cf))

		used, err := repo.IsReferenced(ctx, tenantID, tuition.ID)
		require.NoError(t, err)
		assert.True(t, used)

		used, err = repo.IsReferenced(ctx, tenantID, lab.ID)
		require.NoError(t, err)
		assert.False(t, used)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteForTenant(ctx, tenantID, lab.ID))
		assert.ErrorIs(t, repo.DeleteForTenant(ctx, tenantID, lab.ID), shared.ErrNotFound)
	})
}

func TestGormClassFeeRepository_Versioning(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormClassFeeRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	groupID := uuid.New()
	categoryID := uuid.New()

	v1, err := fee.NewClassFee(tenantID, groupID, categoryID, decimal.NewFromInt(3000), fee.CycleMonthly, 10, date(2024, 1, 1), "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, v1))

	t.Run("a second open version for the same key is rejected", func(t *testing.T) {
		dup, err := fee.NewClassFee(tenantID, groupID, categoryID, decimal.NewFromInt(100), fee.CycleMonthly, 10, date(2024, 2, 1), "")
		require.NoError(t, err)
		err = repo.Create(ctx, dup)
		assert.True(t, shared.IsDomainCode(err, shared.CodeAlreadyExists))

		exists, err := repo.ExistsOpen(ctx, tenantID, groupID, categoryID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("hike closes the open version and inserts the next", func(t *testing.T) {
		open, err := repo.FindOpen(ctx, tenantID, v1.VersionGroupID)
		require.NoError(t, err)
		v2, err := open.Hike(decimal.NewFromInt(3500), date(2024, 4, 1), "annual revision")
		require.NoError(t, err)
		require.NoError(t, repo.ApplyHike(ctx, open, v2))

		versions, err := repo.ListVersions(ctx, tenantID, v1.VersionGroupID)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, 1, versions[0].VersionNumber)
		require.NotNil(t, versions[0].EffectiveTo)
		assert.Equal(t, date(2024, 4, 1), *versions[0].EffectiveTo)
		assert.Equal(t, 2, versions[1].VersionNumber)
		assert.Nil(t, versions[1].EffectiveTo)
		assert.Equal(t, date(2024, 1, 1), versions[1].GroupStart)
	})

	t.Run("effective version follows the as-of date", func(t *testing.T) {
		march, err := repo.FindEffective(ctx, tenantID, groupID, date(2024, 3, 1))
		require.NoError(t, err)
		require.Len(t, march, 1)
		assert.True(t, march[0].Amount.Equal(decimal.NewFromInt(3000)))

		april, err := repo.FindEffective(ctx, tenantID, groupID, date(2024, 4, 1))
		require.NoError(t, err)
		require.Len(t, april, 1)
		assert.True(t, april[0].Amount.Equal(decimal.NewFromInt(3500)))

		before, err := repo.FindEffective(ctx, tenantID, groupID, date(2023, 12, 31))
		require.NoError(t, err)
		assert.Empty(t, before)
	})

	t.Run("a stale hike loses with a concurrent modification", func(t *testing.T) {
		stale, err := repo.FindByIDForTenant(ctx, tenantID, v1.ID)
		require.NoError(t, err)
		// simulate a reader that saw version 1 while it was still open
		stale.EffectiveTo = nil
		next, err := stale.Hike(decimal.NewFromInt(4000), date(2024, 6, 1), "")
		require.NoError(t, err)

		err = repo.ApplyHike(ctx, stale, next)
		assert.ErrorIs(t, err, shared.ErrConcurrentModification)

		versions, err := repo.ListVersions(ctx, tenantID, v1.VersionGroupID)
		require.NoError(t, err)
		assert.Len(t, versions, 2)
	})

	t.Run("filters current versions", func(t *testing.T) {
		list, err := repo.FindAllForTenant(ctx, tenantID, fee.ComponentFilter{ClassGroupID: &groupID, CurrentOnly: true})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 2, list[0].VersionNumber)

		count, err := repo.CountForTenant(ctx, tenantID, fee.ComponentFilter{ClassGroupID: &groupID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormTransportRepositories(t *testing.T) {
	db := setupTestDB(t)
	routes := NewGormTransportRouteRepository(db)
	fees := NewGormTransportFeeRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	route, err := fee.NewTransportRoute(tenantID, "North Loop", "KA-01-1234", "North", decimal.NewFromInt(12))
	require.NoError(t, err)
	require.NoError(t, routes.Save(ctx, route))

	charges := fee.TransportCharges{
		BaseFee:       decimal.NewFromInt(1200),
		EscortFee:     decimal.NewFromInt(200),
		FuelSurcharge: decimal.NewFromInt(100),
	}
	tf, err := fee.NewTransportFee(tenantID, route.ID, charges, fee.CycleMonthly, date(2024, 4, 1), "")
	require.NoError(t, err)
	require.NoError(t, fees.Create(ctx, tf))

	exists, err := fees.ExistsOpen(ctx, tenantID, route.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	surcharge := decimal.NewFromInt(250)
	next, err := tf.Hike(fee.TransportHike{FuelSurcharge: &surcharge}, date(2024, 10, 1), "diesel")
	require.NoError(t, err)
	require.NoError(t, fees.ApplyHike(ctx, tf, next))

	july, err := fees.FindEffective(ctx, tenantID, route.ID, date(2024, 7, 1))
	require.NoError(t, err)
	assert.True(t, july.Total().Equal(decimal.NewFromInt(1500)))

	october, err := fees.FindEffective(ctx, tenantID, route.ID, date(2024, 10, 1))
	require.NoError(t, err)
	assert.True(t, october.Total().Equal(decimal.NewFromInt(1650)))

	_, err = fees.FindEffective(ctx, tenantID, route.ID, date(2024, 3, 31))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list, err := routes.FindAllForTenant(ctx, tenantID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "North Loop", list[0].RouteName)
}

func TestGormOptionalFeeRepository_FindEffective(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOptionalFeeRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	music, err := fee.NewOptionalFee(tenantID, "Music", decimal.NewFromInt(500), fee.CycleMonthly, date(2024, 4, 1), "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, music))
	chess, err := fee.NewOptionalFee(tenantID, "Chess", decimal.NewFromInt(300), fee.CycleMonthly, date(2024, 4, 1), "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, chess))

	exists, err := repo.ExistsOpenByName(ctx, tenantID, "music")
	require.NoError(t, err)
	assert.True(t, exists)

	all, err := repo.FindEffective(ctx, tenantID, date(2024, 5, 1), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	opted, err := repo.FindEffective(ctx, tenantID, date(2024, 5, 1), []uuid.UUID{music.VersionGroupID})
	require.NoError(t, err)
	require.Len(t, opted, 1)
	assert.Equal(t, "Music", opted[0].Name)

	none, err := repo.FindEffective(ctx, tenantID, date(2024, 5, 1), []uuid.UUID{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormClassFeeRepository_OneTimeFeeStartingMidMonth(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormClassFeeRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	classGroupID := uuid.New()
	policy := fee.DefaultBillingPolicy()

	admission, err := fee.NewClassFee(tenantID, classGroupID, uuid.New(), decimal.NewFromInt(5000), fee.CycleOneTime, 10, date(2024, 3, 15), "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, admission))

	billed := decimal.Zero
	for month := 1; month <= 12; month++ {
		period := shared.Period{Month: month, Year: 2024}
		effective, err := repo.FindEffective(ctx, tenantID, classGroupID, period.Start())
		require.NoError(t, err)
		c := policy.Compose(fee.BillInputs{Period: period, ClassFees: effective})
		if month == 4 {
			assert.True(t, c.ClassFeesTotal.Equal(decimal.NewFromInt(5000)), "billed in the first period after it takes effect")
		}
		billed = billed.Add(c.ClassFeesTotal)
	}
	assert.True(t, billed.Equal(decimal.NewFromInt(5000)), "billed exactly once, got %s", billed)
}

func TestGormCustomFeeRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomFeeRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	discount, err := fee.NewCustomFee(tenantID, studentID, fee.CustomFeeDiscount, "Sibling discount", decimal.NewFromInt(500), fee.CycleMonthly, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, discount))

	list, err := repo.FindByStudent(ctx, tenantID, studentID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Amount.Equal(decimal.NewFromInt(-500)))
	assert.Equal(t, fee.CustomFeeDiscount, list[0].FeeType)

	require.NoError(t, repo.DeleteForTenant(ctx, tenantID, discount.ID))
	_, err = repo.FindByIDForTenant(ctx, tenantID, discount.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCustomFeeRepository_MarkApplied(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomFeeRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	fine, err := fee.NewCustomFee(tenantID, studentID, fee.CustomFeeFine, "Late library return", decimal.NewFromInt(50), fee.CycleOneTime, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, fine))

	first, second := uuid.New(), uuid.New()
	require.NoError(t, repo.MarkApplied(ctx, tenantID, first, []uuid.UUID{fine.ID}))
	require.NoError(t, repo.MarkApplied(ctx, tenantID, second, []uuid.UUID{fine.ID}))
	require.NoError(t, repo.MarkApplied(ctx, tenantID, second, nil))

	found, err := repo.FindByIDForTenant(ctx, tenantID, fine.ID)
	require.NoError(t, err)
	require.NotNil(t, found.AppliedBillID)
	assert.Equal(t, first, *found.AppliedBillID, "the first bill keeps the fee")
	assert.False(t, found.AppliesToBill(second))
	assert.True(t, found.AppliesToBill(first))
}
