package fee

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BillRepositories groups the repositories the bill generator reads and writes
type BillRepositories struct {
	Bills         fee.FeeBillRepository
	Payments      fee.FeePaymentRepository
	Categories    fee.FeeCategoryRepository
	ClassFees     fee.ClassFeeRepository
	Routes        fee.TransportRouteRepository
	TransportFees fee.TransportFeeRepository
	OptionalFees  fee.OptionalFeeRepository
	CustomFees    fee.CustomFeeRepository
	Students      directory.StudentRepository
}

// BillService generates fee bills and answers bill queries
type BillService struct {
	serviceBase
	repos  BillRepositories
	policy fee.BillingPolicy
}

// NewBillService creates a new BillService
func NewBillService(repos BillRepositories, policy fee.BillingPolicy, opts ...ServiceOption) *BillService {
	return &BillService{
		serviceBase: newServiceBase(opts),
		repos:       repos,
		policy:      policy,
	}
}

// GenerateBill generates one student's bill for a period. An existing bill
// is rejected unless Regenerate is set, and a bill with payments is never
// regenerated.
func (s *BillService) GenerateBill(ctx context.Context, tenantID uuid.UUID, req GenerateBillRequest) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "generate")
	defer span.End()

	period, err := shared.NewPeriod(req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrStudentID, req.StudentID.String(),
		telemetry.SpanAttrPeriod, period.String(),
	)
	billDate, err := s.dateOrToday(req.BillDate)
	if err != nil {
		return nil, err
	}

	student, err := s.repos.Students.FindByIDForTenant(ctx, tenantID, req.StudentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !student.Active {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Bills can only be generated for active students")
	}

	bill, err := s.generate(ctx, tenantID, student, period, req.OptionalFeeIDs, req.Regenerate, billDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrBillNumber, bill.BillNumber)

	resp := ToBillResponse(bill, s.now())
	return &resp, nil
}

// GenerateBills generates bills for every active student, optionally limited
// to one class group. Each student is generated independently; students that
// already have a bill are counted as skipped.
func (s *BillService) GenerateBills(ctx context.Context, tenantID uuid.UUID, req GenerateBillsRequest) (*GenerateBillsResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "generate_batch")
	defer span.End()
	started := time.Now()

	period, err := shared.NewPeriod(req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPeriod, period.String(),
	)
	billDate, err := s.dateOrToday(req.BillDate)
	if err != nil {
		return nil, err
	}

	students, err := s.repos.Students.FindActive(ctx, tenantID, req.ClassGroupID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &GenerateBillsResult{Period: period.String(), Failures: []GenerationFailure{}}
	for i := range students {
		student := &students[i]
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		_, err := s.generate(ctx, tenantID, student, period, nil, req.Regenerate, billDate)
		switch {
		case err == nil:
			result.BillsGenerated++
		case errors.Is(err, fee.ErrBillAlreadyExists):
			result.SkippedExisting++
			s.metrics.RecordBill(ctx, tenantID, telemetry.OutcomeSkipped)
		default:
			result.Failures = append(result.Failures, toGenerationFailure(student.ID, err))
			s.metrics.RecordBill(ctx, tenantID, telemetry.OutcomeFailed)
			s.logger.Warn("Bill generation failed for student",
				zap.String("tenant_id", tenantID.String()),
				zap.String("student_id", student.ID.String()),
				zap.String("period", period.String()),
				zap.Error(err))
		}
	}

	s.metrics.RecordBatch(ctx, "generate_bills", time.Since(started))
	s.logger.Info("Bill generation finished",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", period.String()),
		zap.Int("students", len(students)),
		zap.Int("generated", result.BillsGenerated),
		zap.Int("skipped", result.SkippedExisting),
		zap.Int("failed", len(result.Failures)))
	return result, nil
}

func (s *BillService) generate(
	ctx context.Context,
	tenantID uuid.UUID,
	student *directory.Student,
	period shared.Period,
	optionalFeeIDs []uuid.UUID,
	regenerate bool,
	billDate time.Time,
) (*fee.FeeBill, error) {
	existing, err := s.repos.Bills.FindByStudentPeriod(ctx, tenantID, student.ID, period)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil && !regenerate {
		return nil, fee.ErrBillAlreadyExists
	}
	if existing != nil && existing.TotalPaid.IsPositive() {
		return nil, fee.ErrBillHasPayments
	}

	billID := uuid.Nil
	if existing != nil {
		billID = existing.ID
	}
	comp, err := s.compose(ctx, tenantID, student, period, optionalFeeIDs, billID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := existing.Regenerate(comp, student.RouteID, billDate); err != nil {
			return nil, err
		}
		if err := s.repos.Bills.SaveWithLock(ctx, existing); err != nil {
			return nil, err
		}
		if err := s.markOneTimeFees(ctx, tenantID, existing.ID, comp); err != nil {
			return nil, err
		}
		s.metrics.RecordBill(ctx, tenantID, telemetry.OutcomeRegenerated)
		s.publish(ctx, existing)
		return existing, nil
	}

	bill, err := fee.NewFeeBill(tenantID, student.ID, student.ClassGroupID, student.RouteID, "", comp, billDate)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Bills.Create(ctx, bill); err != nil {
		return nil, err
	}
	if err := s.markOneTimeFees(ctx, tenantID, bill.ID, comp); err != nil {
		return nil, err
	}
	s.metrics.RecordBill(ctx, tenantID, telemetry.OutcomeCreated)
	s.publish(ctx, bill)
	return bill, nil
}

// markOneTimeFees ties the one-time custom fees on a bill to it so no later
// bill picks them up again
func (s *BillService) markOneTimeFees(ctx context.Context, tenantID, billID uuid.UUID, comp *fee.BillComposition) error {
	if len(comp.OneTimeCustomFees) == 0 {
		return nil
	}
	return s.repos.CustomFees.MarkApplied(ctx, tenantID, billID, comp.OneTimeCustomFees)
}

// compose resolves every component effective at the period start and nets
// them into a bill composition. billID is the bill being regenerated, or
// uuid.Nil for a new one.
func (s *BillService) compose(
	ctx context.Context,
	tenantID uuid.UUID,
	student *directory.Student,
	period shared.Period,
	optionalFeeIDs []uuid.UUID,
	billID uuid.UUID,
) (*fee.BillComposition, error) {
	asOf := period.Start()
	in := fee.BillInputs{Period: period, BillID: billID}

	classFees, err := s.repos.ClassFees.FindEffective(ctx, tenantID, student.ClassGroupID, asOf)
	if err != nil {
		return nil, err
	}
	in.ClassFees = classFees
	if len(classFees) > 0 {
		ids := make([]uuid.UUID, 0, len(classFees))
		for _, f := range classFees {
			ids = append(ids, f.FeeCategoryID)
		}
		if in.CategoryNames, err = s.repos.Categories.FindNames(ctx, tenantID, ids); err != nil {
			return nil, err
		}
	}

	if student.RouteID != nil {
		transportFee, err := s.repos.TransportFees.FindEffective(ctx, tenantID, *student.RouteID, asOf)
		switch {
		case err == nil:
			in.TransportFee = transportFee
			route, err := s.repos.Routes.FindByIDForTenant(ctx, tenantID, *student.RouteID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			if route != nil {
				in.RouteName = route.RouteName
			}
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}

	groups, err := s.optionalGroups(ctx, tenantID, student.OptionalFeeGroupIDs, optionalFeeIDs)
	if err != nil {
		return nil, err
	}
	if len(groups) > 0 {
		if in.OptionalFees, err = s.repos.OptionalFees.FindEffective(ctx, tenantID, asOf, groups); err != nil {
			return nil, err
		}
	}

	if in.CustomFees, err = s.repos.CustomFees.FindByStudent(ctx, tenantID, student.ID); err != nil {
		return nil, err
	}

	return s.policy.Compose(in), nil
}

// optionalGroups merges the student's standing opt-ins with the optional fee
// versions named in the request, resolved to their version groups
func (s *BillService) optionalGroups(ctx context.Context, tenantID uuid.UUID, standing, requested []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(standing)+len(requested))
	groups := make([]uuid.UUID, 0, len(standing)+len(requested))
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		groups = append(groups, id)
	}
	for _, id := range standing {
		add(id)
	}
	for _, id := range requested {
		f, err := s.repos.OptionalFees.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewValidationError("optional fee " + id.String() + " does not exist")
			}
			return nil, err
		}
		add(f.VersionGroupID)
	}
	return groups, nil
}

// GetBill retrieves a bill with its payments
func (s *BillService) GetBill(ctx context.Context, tenantID, id uuid.UUID) (*BillDetailResponse, error) {
	bill, err := s.repos.Bills.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repos.Payments.FindByBill(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	resp := &BillDetailResponse{
		BillResponse: ToBillResponse(bill, s.now()),
		Payments:     make([]PaymentResponse, len(payments)),
	}
	for i := range payments {
		resp.Payments[i] = ToPaymentResponse(&payments[i])
	}
	return resp, nil
}

// ListBills lists bills matching the filter
func (s *BillService) ListBills(ctx context.Context, tenantID uuid.UUID, filter BillListFilter) ([]BillResponse, int64, error) {
	domainFilter, err := s.toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	bills, err := s.repos.Bills.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Bills.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	responses := make([]BillResponse, len(bills))
	for i := range bills {
		responses[i] = ToBillResponse(&bills[i], now)
	}
	return responses, total, nil
}

// Summary aggregates bills matching the filter
func (s *BillService) Summary(ctx context.Context, tenantID uuid.UUID, filter BillListFilter) (*BillSummaryResponse, error) {
	domainFilter, err := s.toDomainFilter(filter)
	if err != nil {
		return nil, err
	}
	summary, err := s.repos.Bills.Summarize(ctx, tenantID, domainFilter, s.today())
	if err != nil {
		return nil, err
	}
	return &BillSummaryResponse{
		TotalBills:         summary.TotalBills,
		TotalNet:           summary.TotalNet,
		TotalPaid:          summary.TotalPaid,
		TotalBalance:       summary.TotalBalance,
		PendingCount:       summary.PendingCount,
		PartiallyPaidCount: summary.PartiallyPaidCount,
		PaidCount:          summary.PaidCount,
		OverdueCount:       summary.OverdueCount,
	}, nil
}

func (s *BillService) toDomainFilter(filter BillListFilter) (fee.FeeBillFilter, error) {
	f := fee.FeeBillFilter{
		Filter:       shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: "bill_date", OrderDir: "desc"}.Normalize(),
		StudentID:    filter.StudentID,
		ClassGroupID: filter.ClassGroupID,
		Month:        filter.Month,
		Year:         filter.Year,
	}
	if filter.SortBy != "" {
		f.OrderBy = filter.SortBy
		f.OrderDir = "asc"
		if filter.SortDesc {
			f.OrderDir = "desc"
		}
	}

	overdue := filter.Overdue
	if filter.Status != "" {
		status := fee.BillStatus(filter.Status)
		if !status.IsValid() {
			return fee.FeeBillFilter{}, shared.NewValidationError("invalid bill status")
		}
		if status == fee.BillStatusOverdue {
			overdue = true
		} else {
			f.Status = &status
		}
	}
	if overdue {
		today := s.today()
		f.OverdueAsOf = &today
	}
	return f, nil
}

func toGenerationFailure(id uuid.UUID, err error) GenerationFailure {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return GenerationFailure{StudentID: id, Code: de.Code, Reason: de.Message}
	}
	return GenerationFailure{StudentID: id, Code: "INTERNAL_ERROR", Reason: "internal error"}
}
