package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/logger"
	"rentaldesk-backend/internal/pricing"
	"rentaldesk-backend/internal/repository"
	"rentaldesk-backend/internal/utils"
)

const (
	// Secondary vehicle-flag writes are retried this many times with a
	// read-back verification before the failure is surfaced as a
	// consistency warning.
	vehicleReleaseRetries = 3

	// Booking reference collision-check ceiling per day.
	maxRefAttempts = 50
)

// RentalConfig carries the lifecycle settings the service needs.
type RentalConfig struct {
	BookingPrefix      string
	CancellationWindow time.Duration
	SubstitutionWindow time.Duration
	StartRounding      time.Duration // 0 disables start-time rounding
	Location           *time.Location
}

type rentalService struct {
	rentalRepo  repository.RentalRepository
	vehicleRepo repository.VehicleRepository
	gate        BlacklistGate
	schedules   pricing.Provider
	alerts      AlertService
	cfg         RentalConfig
	now         func() time.Time
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	vehicleRepo repository.VehicleRepository,
	gate BlacklistGate,
	schedules pricing.Provider,
	alerts AlertService,
	cfg RentalConfig,
) RentalService {
	return &rentalService{
		rentalRepo:  rentalRepo,
		vehicleRepo: vehicleRepo,
		gate:        gate,
		schedules:   schedules,
		alerts:      alerts,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *rentalService) StartRental(ctx context.Context, in StartRentalInput) (*RentalResult, error) {
	if in.VehicleID <= 0 {
		return nil, &domain.ValidationError{Field: "vehicle_id", Reason: "required"}
	}
	if in.CustomerID <= 0 {
		return nil, &domain.ValidationError{Field: "customer_id", Reason: "required"}
	}

	clearance, err := s.gate.CheckCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("blacklist check failed: %w", err)
	}
	if !clearance.CanBook {
		return nil, &domain.ConflictError{Reason: fmt.Sprintf("customer may not book: %s", clearance.Reason)}
	}

	if _, err := s.vehicleRepo.GetByID(ctx, in.VehicleID); err != nil {
		return nil, &domain.ValidationError{Field: "vehicle_id", Reason: "unknown vehicle"}
	}

	// The claim is the mutual-exclusion point: it succeeds for at most one
	// concurrent starter per vehicle.
	claimed, err := s.vehicleRepo.Claim(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, &domain.ConflictError{Reason: "vehicle is not available"}
	}

	now := s.now().In(s.cfg.Location)
	startTime := roundUp(now, s.cfg.StartRounding)

	rental := &domain.Rental{
		VehicleID:  in.VehicleID,
		CustomerID: in.CustomerID,
		StartTime:  startTime,
		Status:     domain.RentalStatusActive,
		Notes:      in.Notes,
	}

	if err := s.assignBookingRef(ctx, rental, now); err == nil {
		err = s.rentalRepo.Create(ctx, rental)
	}
	if err != nil {
		// Compensating rollback: a claimed vehicle must not outlive a failed
		// rental insert.
		if relErr := s.vehicleRepo.Release(ctx, in.VehicleID); relErr != nil {
			logger.Error("Failed to release vehicle after rental create failure",
				"vehicle_id", in.VehicleID, "error", relErr)
		}
		return nil, err
	}

	logger.Info("Rental started", "rental_id", rental.ID, "vehicle_id", in.VehicleID, "customer_id", in.CustomerID)
	return &RentalResult{Rental: rental, Warning: clearance.Warning}, nil
}

func (s *rentalService) CompleteRental(ctx context.Context, rentalID string, in CompleteRentalInput) (*RentalResult, error) {
	if in.DiscountPaise < 0 {
		return nil, &domain.ValidationError{Field: "discount_paise", Reason: "must not be negative"}
	}
	if in.AdditionalPaise < 0 {
		return nil, &domain.ValidationError{Field: "additional_paise", Reason: "must not be negative"}
	}

	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.Status != domain.RentalStatusActive {
		return nil, &domain.ConflictError{Reason: "rental is not active"}
	}

	endTime := s.now().In(s.cfg.Location)
	if in.EndTime != nil {
		endTime = in.EndTime.In(s.cfg.Location)
	}

	// Billing always uses the schedule in effect at completion time; a
	// reconciliation run is the only path that recomputes historically.
	schedule, err := s.schedules.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("no rate schedule available: %w", err)
	}

	quote := pricing.Price(rental.StartTime, endTime, schedule)
	amount := pricing.Adjusted(quote.AmountPaise, in.DiscountPaise, in.AdditionalPaise)

	rental.Status = domain.RentalStatusCompleted
	rental.EndTime = &endTime
	rental.FinalAmountPaise = &amount
	rental.DiscountPaise = in.DiscountPaise
	rental.AdditionalPaise = in.AdditionalPaise
	rental.PaymentMethod = in.PaymentMethod
	rental.ConditionNotes = in.ConditionNotes
	rental.TotalMinutes = int32(quote.TotalMinutes)
	rental.Breakdown = quote.Breakdown

	ok, err := s.rentalRepo.Complete(ctx, rental)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent complete/cancel won the transition.
		return nil, &domain.ConflictError{Reason: "rental is not active"}
	}

	result := &RentalResult{Rental: rental}
	result.Consistency = s.releaseWithVerify(ctx, rental.ID, rental.VehicleID, "complete")

	logger.Info("Rental completed", "rental_id", rental.ID,
		"amount_paise", amount, "total_minutes", quote.TotalMinutes)
	return result, nil
}

func (s *rentalService) CancelRental(ctx context.Context, rentalID, reason string, manualOverride bool) (*RentalResult, error) {
	if reason == "" {
		return nil, &domain.ValidationError{Field: "reason", Reason: "required"}
	}

	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.Status != domain.RentalStatusActive {
		return nil, &domain.ConflictError{Reason: "rental is not active"}
	}

	now := s.now().In(s.cfg.Location)
	withinWindow := now.Sub(rental.StartTime) <= s.cfg.CancellationWindow
	if !withinWindow && !manualOverride {
		return nil, &domain.ConflictError{
			Reason: fmt.Sprintf("cancellation window of %s elapsed; manual override required", s.cfg.CancellationWindow),
		}
	}

	rental.Status = domain.RentalStatusCancelled
	rental.Cancellation = &domain.CancellationInfo{
		CancelledAt:    now,
		Reason:         reason,
		WithinWindow:   withinWindow,
		ManualOverride: manualOverride,
	}

	ok, err := s.rentalRepo.Cancel(ctx, rental)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.ConflictError{Reason: "rental is not active"}
	}

	result := &RentalResult{Rental: rental}
	result.Consistency = s.releaseWithVerify(ctx, rental.ID, rental.VehicleID, "cancel")

	logger.Info("Rental cancelled", "rental_id", rental.ID,
		"within_window", withinWindow, "manual_override", manualOverride)
	return result, nil
}

func (s *rentalService) ChangeVehicle(ctx context.Context, rentalID string, newVehicleID int32) (*RentalResult, error) {
	if newVehicleID <= 0 {
		return nil, &domain.ValidationError{Field: "vehicle_id", Reason: "required"}
	}

	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.Status != domain.RentalStatusActive {
		return nil, &domain.ConflictError{Reason: "rental is not active"}
	}
	if newVehicleID == rental.VehicleID {
		return nil, &domain.ValidationError{Field: "vehicle_id", Reason: "same vehicle"}
	}

	now := s.now().In(s.cfg.Location)
	if now.Sub(rental.StartTime) > s.cfg.SubstitutionWindow {
		return nil, &domain.ConflictError{
			Reason: fmt.Sprintf("vehicle substitution window of %s elapsed", s.cfg.SubstitutionWindow),
		}
	}

	claimed, err := s.vehicleRepo.Claim(ctx, newVehicleID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, &domain.ConflictError{Reason: "replacement vehicle is not available"}
	}

	oldVehicleID := rental.VehicleID
	audit := append(rental.Audit, utils.NewAuditEntry(now, "vehicle_substitution",
		fmt.Sprintf("vehicle %d -> %d", oldVehicleID, newVehicleID)))

	ok, err := s.rentalRepo.SwapVehicle(ctx, rentalID, newVehicleID, audit)
	if err == nil && !ok {
		err = &domain.ConflictError{Reason: "rental is not active"}
	}
	if err != nil {
		if relErr := s.vehicleRepo.Release(ctx, newVehicleID); relErr != nil {
			logger.Error("Failed to release replacement vehicle after swap failure",
				"vehicle_id", newVehicleID, "error", relErr)
		}
		return nil, err
	}

	rental.VehicleID = newVehicleID
	rental.Audit = audit

	result := &RentalResult{Rental: rental}
	result.Consistency = s.releaseWithVerify(ctx, rental.ID, oldVehicleID, "substitute")

	logger.Info("Vehicle substituted", "rental_id", rentalID,
		"old_vehicle_id", oldVehicleID, "new_vehicle_id", newVehicleID)
	return result, nil
}

func (s *rentalService) GetRental(ctx context.Context, rentalID string) (*domain.Rental, error) {
	return s.rentalRepo.GetByID(ctx, rentalID)
}

func (s *rentalService) QuoteRental(ctx context.Context, rentalID string) (*pricing.Quote, error) {
	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	switch rental.Status {
	case domain.RentalStatusCompleted:
		return &pricing.Quote{
			AmountPaise:  *rental.FinalAmountPaise,
			Breakdown:    rental.Breakdown,
			TotalMinutes: int(rental.TotalMinutes),
		}, nil
	case domain.RentalStatusCancelled:
		return &pricing.Quote{}, nil
	}

	return s.QuoteRange(ctx, rental.StartTime, s.now().In(s.cfg.Location))
}

func (s *rentalService) QuoteRange(ctx context.Context, start, end time.Time) (*pricing.Quote, error) {
	schedule, err := s.schedules.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("no rate schedule available: %w", err)
	}
	quote := pricing.Price(start, end, schedule)
	return &quote, nil
}

// assignBookingRef picks the next free PREFIX-YYYYMMDD-NNN reference for the
// day, collision-checking each candidate against existing ids.
func (s *rentalService) assignBookingRef(ctx context.Context, rental *domain.Rental, day time.Time) error {
	count, err := s.rentalRepo.CountForDate(ctx, utils.BookingDateKey(day))
	if err != nil {
		return err
	}
	seq := int(count) + 1
	for attempt := 0; attempt < maxRefAttempts; attempt++ {
		ref := utils.BookingRef(s.cfg.BookingPrefix, day, seq)
		exists, err := s.rentalRepo.ExistsID(ctx, ref)
		if err != nil {
			return err
		}
		if !exists {
			rental.ID = ref
			return nil
		}
		seq++
	}
	return fmt.Errorf("could not allocate a booking reference for %s", day.Format("2006-01-02"))
}

// releaseWithVerify performs the secondary vehicle-flag write with retries
// and a read-back verification. The primary transition has already been
// committed; exhausted retries are reported, logged, and alerted but
// never fails the operation.
func (s *rentalService) releaseWithVerify(ctx context.Context, rentalID string, vehicleID int32, op string) *domain.ConsistencyWarning {
	var lastErr error
	for attempt := 1; attempt <= vehicleReleaseRetries; attempt++ {
		if err := s.vehicleRepo.Release(ctx, vehicleID); err != nil {
			lastErr = err
			continue
		}
		vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
		if err != nil {
			lastErr = err
			continue
		}
		if vehicle.IsAvailable {
			return nil
		}
		lastErr = fmt.Errorf("vehicle %d still unavailable after release", vehicleID)
	}

	warning := &domain.ConsistencyWarning{
		ID:        uuid.NewString(),
		RentalID:  rentalID,
		VehicleID: vehicleID,
		Operation: op,
		Detail:    fmt.Sprintf("vehicle flag release failed after %d attempts: %v", vehicleReleaseRetries, lastErr),
		At:        s.now().In(s.cfg.Location),
	}
	logger.Error("Vehicle status inconsistency", "rental_id", rentalID,
		"vehicle_id", vehicleID, "operation", op, "error", lastErr)
	if err := s.alerts.SendConsistencyAlert(ctx, *warning); err != nil {
		logger.Error("Failed to send consistency alert", "warning_id", warning.ID, "error", err)
	}
	return warning
}

// roundUp rounds t up to the next rounding mark; a zero rounding disables it.
func roundUp(t time.Time, rounding time.Duration) time.Time {
	if rounding <= 0 {
		return t
	}
	rounded := t.Truncate(rounding)
	if rounded.Before(t) {
		rounded = rounded.Add(rounding)
	}
	return rounded
}
