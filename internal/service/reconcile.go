package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/logger"
	"rentaldesk-backend/internal/pricing"
	"rentaldesk-backend/internal/repository"
)

type reconcileService struct {
	rentalRepo repository.RentalRepository
	ledgerRepo repository.LedgerRepository
	schedules  pricing.Provider
	alerts     AlertService
	loc        *time.Location
	now        func() time.Time
}

func NewReconciliationService(
	rentalRepo repository.RentalRepository,
	ledgerRepo repository.LedgerRepository,
	schedules pricing.Provider,
	alerts AlertService,
	loc *time.Location,
) ReconciliationService {
	return &reconcileService{
		rentalRepo: rentalRepo,
		ledgerRepo: ledgerRepo,
		schedules:  schedules,
		alerts:     alerts,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *reconcileService) RecomputeSummary(ctx context.Context, date string) (*domain.LedgerSummary, error) {
	if err := validateLedgerDate(date); err != nil {
		return nil, err
	}
	ledger, err := s.ledgerRepo.GetOrCreateForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	from, to, err := s.effectiveWindow(ledger)
	if err != nil {
		return nil, err
	}

	rentals, err := s.rentalRepo.ListStartedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := domain.LedgerSummary{
		OperatingHours:      ledger.Summary.OperatingHours,
		RevenuePerHourPaise: ledger.Summary.RevenuePerHourPaise,
	}
	vehicles := make(map[int32]struct{})
	for _, rt := range rentals {
		summary.TotalBookings++
		switch rt.Status {
		case domain.RentalStatusCompleted:
			summary.CompletedBookings++
			if rt.FinalAmountPaise != nil {
				summary.TotalRevenuePaise += *rt.FinalAmountPaise
			}
			vehicles[rt.VehicleID] = struct{}{}
		case domain.RentalStatusActive:
			summary.ActiveBookings++
			vehicles[rt.VehicleID] = struct{}{}
		case domain.RentalStatusCancelled:
			// Cancelled rentals contribute zero revenue permanently, even if
			// a stale final amount is still stored on them.
			summary.CancelledBookings++
		}
	}
	summary.VehiclesUsed = int32(len(vehicles))
	if summary.CompletedBookings > 0 {
		summary.AverageBookingPaise = summary.TotalRevenuePaise / int64(summary.CompletedBookings)
	}

	summary.NewCustomers, err = s.rentalRepo.CountNewCustomers(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if summary.OperatingHours.IsPositive() {
		summary.RevenuePerHourPaise = decimal.NewFromInt(summary.TotalRevenuePaise).
			DivRound(summary.OperatingHours, 2)
	}

	if err := s.ledgerRepo.UpdateSummary(ctx, date, summary); err != nil {
		return nil, err
	}

	logger.Info("Ledger summary recomputed", "date", date,
		"revenue_paise", summary.TotalRevenuePaise, "bookings", summary.TotalBookings)
	return &summary, nil
}

func (s *reconcileService) RepriceHistorical(ctx context.Context, from, to time.Time, schedule *pricing.Schedule, dryRun bool) (*RepriceReport, error) {
	if !to.After(from) {
		return nil, &domain.ValidationError{Field: "to", Reason: "must be after from"}
	}

	sched, err := s.resolveSchedule(ctx, schedule)
	if err != nil {
		return nil, err
	}

	rentals, err := s.rentalRepo.ListStartedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &RepriceReport{DryRun: dryRun}
	affectedDates := make(map[string]struct{})
	repricedAt := s.now().In(s.loc)

	for _, rt := range rentals {
		// Only completed rentals with both timestamps qualify; cancelled
		// rentals never regain revenue.
		if rt.Status != domain.RentalStatusCompleted || rt.EndTime == nil || rt.FinalAmountPaise == nil {
			continue
		}
		report.Examined++

		quote := pricing.Price(rt.StartTime, *rt.EndTime, sched)
		newAmount := pricing.Adjusted(quote.AmountPaise, rt.DiscountPaise, rt.AdditionalPaise)
		oldAmount := *rt.FinalAmountPaise

		report.OldTotalPaise += oldAmount
		report.NewTotalPaise += newAmount
		if newAmount == oldAmount {
			continue
		}

		if !dryRun {
			if err := s.rentalRepo.ApplyReprice(ctx, rt.ID, newAmount, quote.Breakdown, repricedAt); err != nil {
				recErr := &domain.ReconciliationError{Ref: rt.ID, Err: err}
				logger.Error("Reprice failed for rental", "rental_id", rt.ID, "error", err)
				report.Errors = append(report.Errors, recErr.Error())
				report.OldTotalPaise -= oldAmount
				report.NewTotalPaise -= newAmount
				continue
			}
			affectedDates[rt.StartTime.In(s.loc).Format("2006-01-02")] = struct{}{}
		}

		report.Changed++
		report.Deltas = append(report.Deltas, RepriceDelta{
			RentalID:   rt.ID,
			OldPaise:   oldAmount,
			NewPaise:   newAmount,
			DeltaPaise: newAmount - oldAmount,
		})
	}

	// Repriced amounts shift daily revenue, so the touched ledgers are
	// rebuilt in the same run. Recompute is idempotent, so a rerun is safe.
	for date := range affectedDates {
		if _, err := s.RecomputeSummary(ctx, date); err != nil {
			recErr := &domain.ReconciliationError{Ref: date, Err: err}
			logger.Error("Post-reprice summary recompute failed", "date", date, "error", err)
			report.Errors = append(report.Errors, recErr.Error())
		}
	}

	logger.Info("Historical reprice finished", "dry_run", dryRun,
		"examined", report.Examined, "changed", report.Changed,
		"old_total_paise", report.OldTotalPaise, "new_total_paise", report.NewTotalPaise)

	if !dryRun && report.Changed > 0 {
		s.sendReport(ctx, "Historical reprice applied", fmt.Sprintf(
			"Repriced %d of %d rentals between %s and %s.\nOld total: %d paise\nNew total: %d paise\nErrors: %d",
			report.Changed, report.Examined, from.Format(time.RFC3339), to.Format(time.RFC3339),
			report.OldTotalPaise, report.NewTotalPaise, len(report.Errors)))
	}
	return report, nil
}

func (s *reconcileService) DeduplicateLedgers(ctx context.Context) (*DedupReport, error) {
	dates, err := s.ledgerRepo.ListDuplicateDates(ctx)
	if err != nil {
		return nil, err
	}

	report := &DedupReport{}
	for _, date := range dates {
		ledgers, err := s.ledgerRepo.ListAllByDate(ctx, date)
		if err != nil {
			recErr := &domain.ReconciliationError{Ref: date, Err: err}
			report.Errors = append(report.Errors, recErr.Error())
			continue
		}
		if len(ledgers) < 2 {
			continue
		}
		report.GroupsFound++

		survivor := pickSurvivor(ledgers)
		group := DedupGroup{Date: date, KeptID: survivor.ID}
		for _, l := range ledgers {
			if l.ID == survivor.ID {
				continue
			}
			if err := s.ledgerRepo.DeleteByID(ctx, l.ID); err != nil {
				recErr := &domain.ReconciliationError{Ref: fmt.Sprintf("%s/%d", date, l.ID), Err: err}
				logger.Error("Failed to delete duplicate ledger", "date", date, "ledger_id", l.ID, "error", err)
				report.Errors = append(report.Errors, recErr.Error())
				continue
			}
			group.RemovedIDs = append(group.RemovedIDs, l.ID)
			report.Removed++
		}
		report.Groups = append(report.Groups, group)
		logger.Info("Deduplicated ledger date", "date", date,
			"kept_id", survivor.ID, "removed", len(group.RemovedIDs))
	}

	// Re-establish the invariant that made this a one-time repair tool.
	if err := s.ledgerRepo.EnsureUniqueDateIndex(ctx); err != nil {
		return report, fmt.Errorf("failed to ensure ledger date uniqueness: %w", err)
	}

	if report.Removed > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Removed %d duplicate ledger rows across %d dates.\n", report.Removed, report.GroupsFound)
		for _, g := range report.Groups {
			fmt.Fprintf(&b, "%s: kept %d, removed %v\n", g.Date, g.KeptID, g.RemovedIDs)
		}
		s.sendReport(ctx, "Duplicate ledgers repaired", b.String())
	}
	return report, nil
}

// effectiveWindow is the single source of truth for which rentals a ledger
// covers: the recorded business window when both ends are set, otherwise the
// business-local calendar day.
func (s *reconcileService) effectiveWindow(ledger *domain.DailyLedger) (time.Time, time.Time, error) {
	if ledger.BusinessStartTime != nil && ledger.BusinessEndTime != nil {
		return *ledger.BusinessStartTime, *ledger.BusinessEndTime, nil
	}
	day, err := time.ParseInLocation("2006-01-02", ledger.LedgerDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "date", Reason: "must be yyyy-mm-dd"}
	}
	return day, day.AddDate(0, 0, 1), nil
}

func (s *reconcileService) resolveSchedule(ctx context.Context, schedule *pricing.Schedule) (pricing.Schedule, error) {
	if schedule == nil {
		sched, err := s.schedules.Current(ctx)
		if err != nil {
			return pricing.Schedule{}, fmt.Errorf("no rate schedule available: %w", err)
		}
		return sched, nil
	}
	if err := schedule.Validate(); err != nil {
		return pricing.Schedule{}, &domain.ValidationError{Field: "schedule", Reason: err.Error()}
	}
	return *schedule, nil
}

func (s *reconcileService) sendReport(ctx context.Context, subject, body string) {
	if err := s.alerts.SendReport(ctx, subject, body); err != nil {
		logger.Error("Failed to send reconciliation report", "subject", subject, "error", err)
	}
}

// pickSurvivor chooses the canonical ledger among duplicates: highest status
// priority, then the row carrying more summary data, then the newest.
func pickSurvivor(ledgers []domain.DailyLedger) domain.DailyLedger {
	sorted := make([]domain.DailyLedger, len(ledgers))
	copy(sorted, ledgers)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if pa, pb := statusPriority(a.Status), statusPriority(b.Status); pa != pb {
			return pa > pb
		}
		if a.Summary.TotalRevenuePaise != b.Summary.TotalRevenuePaise {
			return a.Summary.TotalRevenuePaise > b.Summary.TotalRevenuePaise
		}
		if a.Summary.TotalBookings != b.Summary.TotalBookings {
			return a.Summary.TotalBookings > b.Summary.TotalBookings
		}
		return a.CreatedOn.After(b.CreatedOn)
	})
	return sorted[0]
}

func statusPriority(status domain.LedgerStatus) int {
	switch status {
	case domain.LedgerStatusEnded:
		return 3
	case domain.LedgerStatusInProgress:
		return 2
	default:
		return 1
	}
}
