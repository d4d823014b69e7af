package fee

import (
	"testing"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type composeFixture struct {
	tenant  uuid.UUID
	student uuid.UUID
	tuition uuid.UUID
	lab     uuid.UUID
	names   map[uuid.UUID]string
	policy  BillingPolicy
}

func newComposeFixture() composeFixture {
	f := composeFixture{
		tenant:  uuid.New(),
		student: uuid.New(),
		tuition: uuid.New(),
		lab:     uuid.New(),
		policy:  DefaultBillingPolicy(),
	}
	f.names = map[uuid.UUID]string{f.tuition: "Tuition", f.lab: "Lab"}
	return f
}

func (f composeFixture) classFee(t *testing.T, category uuid.UUID, amount int64, cycle FeeCycle, dueDay int) ClassFee {
	t.Helper()
	cf, err := NewClassFee(f.tenant, uuid.New(), category, decimal.NewFromInt(amount), cycle, dueDay, date(2024, 4, 1), "")
	require.NoError(t, err)
	return *cf
}

func (f composeFixture) customFee(t *testing.T, feeType CustomFeeType, amount int64) CustomFee {
	t.Helper()
	cf, err := NewCustomFee(f.tenant, f.student, feeType, "", decimal.NewFromInt(amount), CycleMonthly, "")
	require.NoError(t, err)
	return *cf
}

func TestCompose_SingleMonthlyFee(t *testing.T) {
	f := newComposeFixture()
	period := shared.Period{Month: 5, Year: 2024}

	c := f.policy.Compose(BillInputs{
		Period:        period,
		ClassFees:     []ClassFee{f.classFee(t, f.tuition, 3000, CycleMonthly, 10)},
		CategoryNames: f.names,
	})

	assert.True(t, c.ClassFeesTotal.Equal(decimal.NewFromInt(3000)))
	assert.True(t, c.GrossAmount.Equal(decimal.NewFromInt(3000)))
	assert.True(t, c.NetAmount.Equal(decimal.NewFromInt(3000)))
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Tuition", c.Items[0].Name)
	assert.Equal(t, SourceClassFee, c.Items[0].Source)
	assert.Equal(t, date(2024, 5, 10), c.DueDate)
}

func TestCompose_CycleFiltering(t *testing.T) {
	f := newComposeFixture()
	fees := []ClassFee{
		f.classFee(t, f.tuition, 3000, CycleMonthly, 10),
		f.classFee(t, f.lab, 1200, CycleQuarterly, 5),
	}

	july := f.policy.Compose(BillInputs{Period: shared.Period{Month: 7, Year: 2024}, ClassFees: fees, CategoryNames: f.names})
	assert.True(t, july.ClassFeesTotal.Equal(decimal.NewFromInt(4200)))
	assert.Equal(t, date(2024, 7, 5), july.DueDate, "earliest due day among billed class fees")
	require.Len(t, july.Items, 2)
	assert.Equal(t, "Lab", july.Items[0].Name)
	assert.Equal(t, "Tuition", july.Items[1].Name)

	aug := f.policy.Compose(BillInputs{Period: shared.Period{Month: 8, Year: 2024}, ClassFees: fees, CategoryNames: f.names})
	assert.True(t, aug.ClassFeesTotal.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, date(2024, 8, 10), aug.DueDate)
}

func TestCompose_OneTimeOnlyInFirstPeriod(t *testing.T) {
	f := newComposeFixture()
	admission := f.classFee(t, f.tuition, 5000, CycleOneTime, 15)

	april := f.policy.Compose(BillInputs{Period: shared.Period{Month: 4, Year: 2024}, ClassFees: []ClassFee{admission}})
	assert.True(t, april.NetAmount.Equal(decimal.NewFromInt(5000)))

	may := f.policy.Compose(BillInputs{Period: shared.Period{Month: 5, Year: 2024}, ClassFees: []ClassFee{admission}})
	assert.True(t, may.NetAmount.IsZero())
	assert.Empty(t, may.Items)
	assert.Equal(t, date(2024, 5, 10), may.DueDate, "policy default due day")
}

func TestCompose_OneTimeEffectiveMidMonth(t *testing.T) {
	f := newComposeFixture()
	uniform, err := NewOptionalFee(f.tenant, "Uniform", decimal.NewFromInt(1800), CycleOneTime, date(2024, 3, 15), "")
	require.NoError(t, err)

	april := f.policy.Compose(BillInputs{Period: shared.Period{Month: 4, Year: 2024}, OptionalFees: []OptionalFee{*uniform}})
	assert.True(t, april.OptionalFeesTotal.Equal(decimal.NewFromInt(1800)))
	require.Len(t, april.Items, 1)
	assert.Equal(t, "Uniform", april.Items[0].Name)

	may := f.policy.Compose(BillInputs{Period: shared.Period{Month: 5, Year: 2024}, OptionalFees: []OptionalFee{*uniform}})
	assert.True(t, may.OptionalFeesTotal.IsZero())
}

func TestCompose_DiscountAndFine(t *testing.T) {
	f := newComposeFixture()

	c := f.policy.Compose(BillInputs{
		Period:        shared.Period{Month: 5, Year: 2024},
		ClassFees:     []ClassFee{f.classFee(t, f.tuition, 3000, CycleMonthly, 10)},
		CategoryNames: f.names,
		CustomFees: []CustomFee{
			f.customFee(t, CustomFeeDiscount, 500),
			f.customFee(t, CustomFeeFine, 200),
		},
	})

	assert.True(t, c.GrossAmount.Equal(decimal.NewFromInt(3200)))
	assert.True(t, c.DiscountAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, c.FineTotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, c.CustomFeesTotal.Equal(decimal.NewFromInt(-300)))
	assert.True(t, c.NetAmount.Equal(decimal.NewFromInt(2700)))
	assert.Len(t, c.Items, 3)
}

func TestCompose_OneTimeCustomFeeGoesOnNextBill(t *testing.T) {
	f := newComposeFixture()
	fine, err := NewCustomFee(f.tenant, f.student, CustomFeeFine, "Broken window", decimal.NewFromInt(400), CycleOneTime, "")
	require.NoError(t, err)
	fine.CreatedAt = date(2024, 5, 20)

	june := f.policy.Compose(BillInputs{Period: shared.Period{Month: 6, Year: 2024}, CustomFees: []CustomFee{*fine}})
	assert.True(t, june.FineTotal.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, []uuid.UUID{fine.ID}, june.OneTimeCustomFees)

	juneBill := uuid.New()
	fine.AppliedBillID = &juneBill

	july := f.policy.Compose(BillInputs{Period: shared.Period{Month: 7, Year: 2024}, CustomFees: []CustomFee{*fine}})
	assert.True(t, july.FineTotal.IsZero())
	assert.Empty(t, july.OneTimeCustomFees)

	regenerated := f.policy.Compose(BillInputs{Period: shared.Period{Month: 6, Year: 2024}, BillID: juneBill, CustomFees: []CustomFee{*fine}})
	assert.True(t, regenerated.FineTotal.Equal(decimal.NewFromInt(400)))
}

func TestCompose_ScholarshipNeverNegative(t *testing.T) {
	f := newComposeFixture()

	c := f.policy.Compose(BillInputs{
		Period:     shared.Period{Month: 5, Year: 2024},
		ClassFees:  []ClassFee{f.classFee(t, f.tuition, 1000, CycleMonthly, 10)},
		CustomFees: []CustomFee{f.customFee(t, CustomFeeScholarship, 1500)},
	})

	assert.True(t, c.ScholarshipAmount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, c.NetAmount.IsZero())
}

func TestCompose_TransportAndOptional(t *testing.T) {
	f := newComposeFixture()
	transport, err := NewTransportFee(f.tenant, uuid.New(), TransportCharges{
		BaseFee:       decimal.NewFromInt(800),
		EscortFee:     decimal.NewFromInt(100),
		FuelSurcharge: decimal.Zero,
	}, CycleMonthly, date(2024, 1, 1), "")
	require.NoError(t, err)
	club, err := NewOptionalFee(f.tenant, "Chess", decimal.NewFromInt(250), CycleMonthly, date(2024, 1, 1), "")
	require.NoError(t, err)
	trip, err := NewOptionalFee(f.tenant, "Annual Trip", decimal.NewFromInt(2000), CycleYearly, date(2024, 1, 1), "")
	require.NoError(t, err)

	c := f.policy.Compose(BillInputs{
		Period:       shared.Period{Month: 4, Year: 2024},
		TransportFee: transport,
		RouteName:    "North",
		OptionalFees: []OptionalFee{*club, *trip},
	})

	assert.True(t, c.TransportFeeTotal.Equal(decimal.NewFromInt(900)))
	assert.True(t, c.OptionalFeesTotal.Equal(decimal.NewFromInt(2250)))
	assert.True(t, c.NetAmount.Equal(decimal.NewFromInt(3150)))
	require.Len(t, c.Items, 3)
	assert.Equal(t, "Transport - North", c.Items[0].Name)
	assert.Equal(t, "Annual Trip", c.Items[1].Name)
	assert.Equal(t, "Chess", c.Items[2].Name)
}

func TestCompose_HikeSelectsVersionByPeriod(t *testing.T) {
	f := newComposeFixture()
	v1, err := NewClassFee(f.tenant, uuid.New(), f.tuition, decimal.NewFromInt(3000), CycleMonthly, 10, date(2023, 6, 1), "")
	require.NoError(t, err)
	v2, err := v1.Hike(decimal.NewFromInt(3500), date(2024, 4, 1), "")
	require.NoError(t, err)

	pick := func(p shared.Period) []ClassFee {
		var out []ClassFee
		for _, v := range []*ClassFee{v1, v2} {
			if v.Covers(p.Start()) {
				out = append(out, *v)
			}
		}
		return out
	}

	march := shared.Period{Month: 3, Year: 2024}
	april := shared.Period{Month: 4, Year: 2024}
	assert.True(t, f.policy.Compose(BillInputs{Period: march, ClassFees: pick(march)}).NetAmount.Equal(decimal.NewFromInt(3000)))
	assert.True(t, f.policy.Compose(BillInputs{Period: april, ClassFees: pick(april)}).NetAmount.Equal(decimal.NewFromInt(3500)))
}
