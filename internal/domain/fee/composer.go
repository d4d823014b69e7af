package fee

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillInputs are the catalog components resolved for one student and period.
// The composer filters them by cycle; callers pass every version covering the
// period start. BillID is set when an existing bill is regenerated.
type BillInputs struct {
	Period        shared.Period
	BillID        uuid.UUID
	ClassFees     []ClassFee
	CategoryNames map[uuid.UUID]string
	TransportFee  *TransportFee
	RouteName     string
	OptionalFees  []OptionalFee
	CustomFees    []CustomFee
}

// BillComposition is the computed content of a bill
type BillComposition struct {
	Period            shared.Period
	DueDate           time.Time
	Items             BillItems
	ClassFeesTotal    decimal.Decimal
	TransportFeeTotal decimal.Decimal
	OptionalFeesTotal decimal.Decimal
	CustomFeesTotal   decimal.Decimal
	AdditionalTotal   decimal.Decimal
	FineTotal         decimal.Decimal
	GrossAmount       decimal.Decimal
	DiscountAmount    decimal.Decimal
	ScholarshipAmount decimal.Decimal
	NetAmount         decimal.Decimal
	// OneTimeCustomFees lists the one-time custom fees taken by this bill
	OneTimeCustomFees []uuid.UUID
}

// Compose nets the inputs into a bill composition.
//
//	gross = class + transport + optional + max(0, additional) + fines
//	net   = gross - discounts - scholarships (never below zero)
//
// Discounts include concessions and waivers. Lines with a zero amount are
// left out of Items.
func (p BillingPolicy) Compose(in BillInputs) *BillComposition {
	c := &BillComposition{
		Period:            in.Period,
		Items:             BillItems{},
		ClassFeesTotal:    decimal.Zero,
		TransportFeeTotal: decimal.Zero,
		OptionalFeesTotal: decimal.Zero,
		CustomFeesTotal:   decimal.Zero,
		AdditionalTotal:   decimal.Zero,
		FineTotal:         decimal.Zero,
		DiscountAmount:    decimal.Zero,
		ScholarshipAmount: decimal.Zero,
	}

	dueDay := 0
	classFees := slices.Clone(in.ClassFees)
	slices.SortFunc(classFees, func(a, b ClassFee) int {
		return cmp.Compare(in.CategoryNames[a.FeeCategoryID], in.CategoryNames[b.FeeCategoryID])
	})
	for _, f := range classFees {
		if !p.IsDue(f.FeeCycle, in.Period, f.GroupStart) {
			continue
		}
		c.ClassFeesTotal = c.ClassFeesTotal.Add(f.Amount)
		name := in.CategoryNames[f.FeeCategoryID]
		if name == "" {
			name = "Class fee"
		}
		c.addItem(BillItem{Name: name, Amount: f.Amount, Source: SourceClassFee, SourceID: f.ID, Kind: string(f.FeeCycle)})
		if dueDay == 0 || f.DueDay < dueDay {
			dueDay = f.DueDay
		}
	}

	if t := in.TransportFee; t != nil && p.IsDue(t.FeeCycle, in.Period, t.GroupStart) {
		total := t.Total()
		c.TransportFeeTotal = total
		name := "Transport"
		if in.RouteName != "" {
			name = "Transport - " + in.RouteName
		}
		c.addItem(BillItem{Name: name, Amount: total, Source: SourceTransportFee, SourceID: t.ID, Kind: string(t.FeeCycle)})
	}

	optional := slices.Clone(in.OptionalFees)
	slices.SortFunc(optional, func(a, b OptionalFee) int { return cmp.Compare(a.Name, b.Name) })
	for _, f := range optional {
		if !p.IsDue(f.FeeCycle, in.Period, f.GroupStart) {
			continue
		}
		c.OptionalFeesTotal = c.OptionalFeesTotal.Add(f.DefaultAmount)
		c.addItem(BillItem{Name: f.Name, Amount: f.DefaultAmount, Source: SourceOptionalFee, SourceID: f.ID, Kind: string(f.FeeCycle)})
	}

	for _, f := range in.CustomFees {
		if f.FeeCycle == CycleOneTime {
			if !f.AppliesToBill(in.BillID) {
				continue
			}
			c.OneTimeCustomFees = append(c.OneTimeCustomFees, f.ID)
		} else if !p.IsDue(f.FeeCycle, in.Period, f.CreatedAt) {
			continue
		}
		c.CustomFeesTotal = c.CustomFeesTotal.Add(f.Amount)
		switch f.FeeType {
		case CustomFeeFine, CustomFeeLateFee:
			c.FineTotal = c.FineTotal.Add(f.Amount.Abs())
		case CustomFeeScholarship:
			c.ScholarshipAmount = c.ScholarshipAmount.Add(f.Amount.Abs())
		case CustomFeeDiscount, CustomFeeConcession, CustomFeeWaiver:
			c.DiscountAmount = c.DiscountAmount.Add(f.Amount.Abs())
		default:
			c.AdditionalTotal = c.AdditionalTotal.Add(f.Amount)
		}
		c.addItem(BillItem{Name: f.Description, Amount: f.Amount, Source: SourceCustomFee, SourceID: f.ID, Kind: string(f.FeeType)})
	}

	c.GrossAmount = c.ClassFeesTotal.
		Add(c.TransportFeeTotal).
		Add(c.OptionalFeesTotal).
		Add(decimal.Max(decimal.Zero, c.AdditionalTotal)).
		Add(c.FineTotal)
	c.NetAmount = decimal.Max(decimal.Zero, c.GrossAmount.Sub(c.DiscountAmount).Sub(c.ScholarshipAmount))

	if dueDay == 0 {
		dueDay = p.DefaultDueDay
	}
	c.DueDate = in.Period.Day(dueDay)
	return c
}

func (c *BillComposition) addItem(item BillItem) {
	if item.Amount.IsZero() {
		return
	}
	c.Items = append(c.Items, item)
}
