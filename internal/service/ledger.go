package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/logger"
	"rentaldesk-backend/internal/repository"
	"rentaldesk-backend/internal/utils"
)

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
	recon      ReconciliationService
	loc        *time.Location
	now        func() time.Time
}

func NewLedgerService(ledgerRepo repository.LedgerRepository, recon ReconciliationService, loc *time.Location) LedgerService {
	return &ledgerService{
		ledgerRepo: ledgerRepo,
		recon:      recon,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *ledgerService) GetOrCreate(ctx context.Context, date string) (*domain.DailyLedger, error) {
	if err := validateLedgerDate(date); err != nil {
		return nil, err
	}
	return s.ledgerRepo.GetOrCreateForDate(ctx, date)
}

func (s *ledgerService) StartDay(ctx context.Context, date string, staffID int32, notes string) (*domain.DailyLedger, error) {
	if err := validateLedgerDate(date); err != nil {
		return nil, err
	}
	if _, err := s.ledgerRepo.GetOrCreateForDate(ctx, date); err != nil {
		return nil, err
	}

	ok, err := s.ledgerRepo.StartDay(ctx, date, staffID, notes, s.now().In(s.loc))
	if err != nil {
		return nil, err
	}
	if !ok {
		// Ended days resume through the restart path, never through start.
		return nil, &domain.ConflictError{Reason: "business day is already started or ended"}
	}

	logger.Info("Business day started", "date", date, "staff_id", staffID)
	return s.ledgerRepo.GetByDate(ctx, date)
}

func (s *ledgerService) EndDay(ctx context.Context, date string, staffID int32, notes string, isAuto bool) (*domain.DailyLedger, error) {
	if err := validateLedgerDate(date); err != nil {
		return nil, err
	}
	ledger, err := s.ledgerRepo.GetOrCreateForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	if ledger.Status != domain.LedgerStatusInProgress {
		if isAuto {
			// The auto-end sweep must be safe for days never properly
			// started or already ended.
			return ledger, nil
		}
		return nil, &domain.ConflictError{Reason: "business day is not in progress"}
	}

	// The summary is rebuilt before the day closes so the closing record is
	// consistent with the bookings it covers.
	if _, err := s.recon.RecomputeSummary(ctx, date); err != nil {
		return nil, fmt.Errorf("summary recomputation failed: %w", err)
	}

	endTime := s.now().In(s.loc)
	ok, err := s.ledgerRepo.EndDay(ctx, date, staffID, notes, endTime)
	if err != nil {
		return nil, err
	}
	if !ok {
		if isAuto {
			return s.ledgerRepo.GetByDate(ctx, date)
		}
		return nil, &domain.ConflictError{Reason: "business day is not in progress"}
	}

	ledger, err = s.ledgerRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := s.deriveBusinessWindowFigures(ctx, ledger); err != nil {
		return nil, err
	}

	logger.Info("Business day ended", "date", date, "staff_id", staffID, "auto", isAuto,
		"revenue_paise", ledger.Summary.TotalRevenuePaise)
	return ledger, nil
}

func (s *ledgerService) RestartDay(ctx context.Context, date string, staffID int32, reason string) (*domain.DailyLedger, error) {
	if err := validateLedgerDate(date); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, &domain.ValidationError{Field: "reason", Reason: "required"}
	}

	ledger, err := s.ledgerRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if ledger.Status != domain.LedgerStatusEnded {
		return nil, &domain.ConflictError{Reason: "only an ended business day can be restarted"}
	}

	history := append(ledger.RestartHistory, utils.NewRestartEntry(s.now().In(s.loc), staffID, reason))
	ok, err := s.ledgerRepo.Restart(ctx, date, history)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.ConflictError{Reason: "only an ended business day can be restarted"}
	}

	logger.Info("Business day restarted", "date", date, "staff_id", staffID, "reason", reason)
	return s.ledgerRepo.GetByDate(ctx, date)
}

// deriveBusinessWindowFigures computes operating hours and revenue per hour
// from the closed business window and persists them with the summary.
func (s *ledgerService) deriveBusinessWindowFigures(ctx context.Context, ledger *domain.DailyLedger) error {
	if ledger.BusinessStartTime == nil || ledger.BusinessEndTime == nil {
		return nil
	}
	elapsed := ledger.BusinessEndTime.Sub(*ledger.BusinessStartTime)
	if elapsed <= 0 {
		return nil
	}
	hours := decimal.NewFromFloat(elapsed.Hours()).Round(2)
	ledger.Summary.OperatingHours = hours
	if hours.IsPositive() {
		ledger.Summary.RevenuePerHourPaise = decimal.NewFromInt(ledger.Summary.TotalRevenuePaise).
			DivRound(hours, 2)
	}
	return s.ledgerRepo.UpdateSummary(ctx, ledger.LedgerDate, ledger.Summary)
}

func validateLedgerDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return &domain.ValidationError{Field: "date", Reason: "must be yyyy-mm-dd"}
	}
	return nil
}
