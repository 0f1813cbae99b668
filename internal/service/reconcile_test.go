package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/pricing"
)

type reconcileFixture struct {
	rentalRepo *MockRentalRepo
	ledgerRepo *MockLedgerRepo
	alerts     *MockAlertService
	svc        *reconcileService
}

func newReconcileFixture(t *testing.T, now time.Time) *reconcileFixture {
	t.Helper()
	f := &reconcileFixture{
		rentalRepo: new(MockRentalRepo),
		ledgerRepo: new(MockLedgerRepo),
		alerts:     new(MockAlertService),
	}
	svc := NewReconciliationService(
		f.rentalRepo, f.ledgerRepo,
		pricing.StaticProvider{Schedule: testSchedule()},
		f.alerts, time.UTC,
	).(*reconcileService)
	svc.now = func() time.Time { return now }
	f.svc = svc
	return f
}

func dayWindow(date string) (time.Time, time.Time) {
	day, _ := time.ParseInLocation("2006-01-02", date, time.UTC)
	return day, day.AddDate(0, 0, 1)
}

func completedRental(id string, start time.Time, minutes int, amountPaise int64, vehicleID int32) domain.Rental {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return domain.Rental{
		ID:               id,
		VehicleID:        vehicleID,
		CustomerID:       1,
		StartTime:        start,
		EndTime:          &end,
		Status:           domain.RentalStatusCompleted,
		FinalAmountPaise: &amountPaise,
	}
}

func TestRecomputeSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC)
	from, to := dayWindow("2026-08-28")

	t.Run("EmptyDayYieldsZeros", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		f.ledgerRepo.On("GetOrCreateForDate", ctx, "2026-08-28").
			Return(ledgerWithStatus("2026-08-28", domain.LedgerStatusNotStarted), nil)
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return([]domain.Rental{}, nil)
		f.rentalRepo.On("CountNewCustomers", ctx, from, to).Return(int32(0), nil)
		f.ledgerRepo.On("UpdateSummary", ctx, "2026-08-28", mock.MatchedBy(func(s domain.LedgerSummary) bool {
			return s.TotalRevenuePaise == 0 && s.TotalBookings == 0 && s.AverageBookingPaise == 0
		})).Return(nil)

		summary, err := f.svc.RecomputeSummary(ctx, "2026-08-28")
		require.NoError(t, err)
		assert.Equal(t, int64(0), summary.TotalRevenuePaise)
		f.ledgerRepo.AssertExpectations(t)
	})

	t.Run("CancelledRentalsContributeNoRevenue", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		start := from.Add(10 * time.Hour)

		stale := int64(9999) // leftover amount on a cancelled record
		rentals := []domain.Rental{
			completedRental("RNT-20260828-001", start, 90, 12000, 3),
			completedRental("RNT-20260828-002", start.Add(time.Hour), 60, 8000, 4),
			{
				ID: "RNT-20260828-003", VehicleID: 5, CustomerID: 2,
				StartTime: start, Status: domain.RentalStatusCancelled,
				FinalAmountPaise: &stale,
			},
			{
				ID: "RNT-20260828-004", VehicleID: 3, CustomerID: 3,
				StartTime: start.Add(2 * time.Hour), Status: domain.RentalStatusActive,
			},
		}

		f.ledgerRepo.On("GetOrCreateForDate", ctx, "2026-08-28").
			Return(ledgerWithStatus("2026-08-28", domain.LedgerStatusInProgress), nil)
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return(rentals, nil)
		f.rentalRepo.On("CountNewCustomers", ctx, from, to).Return(int32(1), nil)
		f.ledgerRepo.On("UpdateSummary", ctx, "2026-08-28", mock.Anything).Return(nil)

		summary, err := f.svc.RecomputeSummary(ctx, "2026-08-28")
		require.NoError(t, err)
		assert.Equal(t, int64(20000), summary.TotalRevenuePaise)
		assert.Equal(t, int32(4), summary.TotalBookings)
		assert.Equal(t, int32(2), summary.CompletedBookings)
		assert.Equal(t, int32(1), summary.ActiveBookings)
		assert.Equal(t, int32(1), summary.CancelledBookings)
		// Vehicle 3 served two rentals; cancelled vehicle 5 does not count.
		assert.Equal(t, int32(3), summary.VehiclesUsed)
		assert.Equal(t, int64(10000), summary.AverageBookingPaise)
		assert.Equal(t, int32(1), summary.NewCustomers)
	})

	t.Run("UsesBusinessWindowWhenClosed", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		bizStart := from.Add(8 * time.Hour)
		bizEnd := from.Add(22 * time.Hour)
		ledger := ledgerWithStatus("2026-08-28", domain.LedgerStatusEnded)
		ledger.BusinessStartTime = &bizStart
		ledger.BusinessEndTime = &bizEnd

		f.ledgerRepo.On("GetOrCreateForDate", ctx, "2026-08-28").Return(ledger, nil)
		f.rentalRepo.On("ListStartedBetween", ctx, bizStart, bizEnd).Return([]domain.Rental{}, nil)
		f.rentalRepo.On("CountNewCustomers", ctx, bizStart, bizEnd).Return(int32(0), nil)
		f.ledgerRepo.On("UpdateSummary", ctx, "2026-08-28", mock.Anything).Return(nil)

		_, err := f.svc.RecomputeSummary(ctx, "2026-08-28")
		require.NoError(t, err)
		f.rentalRepo.AssertExpectations(t)
	})
}

func TestRepriceHistorical(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	from, to := dayWindow("2026-08-28")
	start := from.Add(10 * time.Hour)

	t.Run("DryRunReportsWithoutWriting", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		// Stored at 16000; the current schedule prices 90 minutes at 12000.
		rentals := []domain.Rental{completedRental("RNT-20260828-001", start, 90, 16000, 3)}
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return(rentals, nil)

		report, err := f.svc.RepriceHistorical(ctx, from, to, nil, true)
		require.NoError(t, err)
		assert.True(t, report.DryRun)
		assert.Equal(t, 1, report.Examined)
		assert.Equal(t, 1, report.Changed)
		assert.Equal(t, int64(16000), report.OldTotalPaise)
		assert.Equal(t, int64(12000), report.NewTotalPaise)
		require.Len(t, report.Deltas, 1)
		assert.Equal(t, int64(-4000), report.Deltas[0].DeltaPaise)
		f.rentalRepo.AssertNotCalled(t, "ApplyReprice",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AppliedRunWritesAndRecomputesLedgers", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		rentals := []domain.Rental{completedRental("RNT-20260828-001", start, 90, 16000, 3)}
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return(rentals, nil).Once()
		f.rentalRepo.On("ApplyReprice", ctx, "RNT-20260828-001", int64(12000), mock.Anything, now).
			Return(nil).Once()

		// Affected ledger date is rebuilt in the same run.
		f.ledgerRepo.On("GetOrCreateForDate", ctx, "2026-08-28").
			Return(ledgerWithStatus("2026-08-28", domain.LedgerStatusEnded), nil)
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return(rentals, nil)
		f.rentalRepo.On("CountNewCustomers", ctx, from, to).Return(int32(0), nil)
		f.ledgerRepo.On("UpdateSummary", ctx, "2026-08-28", mock.Anything).Return(nil)
		f.alerts.On("SendReport", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		report, err := f.svc.RepriceHistorical(ctx, from, to, nil, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Changed)
		assert.Empty(t, report.Errors)
		f.rentalRepo.AssertExpectations(t)
		f.alerts.AssertExpectations(t)
	})

	t.Run("SecondRunIsIdempotent", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		// Already at the schedule price: examined but unchanged, no writes.
		rentals := []domain.Rental{completedRental("RNT-20260828-001", start, 90, 12000, 3)}
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return(rentals, nil)

		report, err := f.svc.RepriceHistorical(ctx, from, to, nil, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Examined)
		assert.Equal(t, 0, report.Changed)
		assert.Equal(t, report.OldTotalPaise, report.NewTotalPaise)
		f.rentalRepo.AssertNotCalled(t, "ApplyReprice",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SkipsCancelledAndActive", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		rentals := []domain.Rental{
			{ID: "a", StartTime: start, Status: domain.RentalStatusCancelled},
			{ID: "b", StartTime: start, Status: domain.RentalStatusActive},
		}
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return(rentals, nil)

		report, err := f.svc.RepriceHistorical(ctx, from, to, nil, true)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Examined)
		assert.Equal(t, 0, report.Changed)
	})

	t.Run("PerRecordFailureDoesNotAbortBatch", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		rentals := []domain.Rental{
			completedRental("RNT-20260828-001", start, 90, 16000, 3),
			completedRental("RNT-20260828-002", start.Add(time.Hour), 90, 16000, 4),
		}
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return(rentals, nil).Once()
		f.rentalRepo.On("ApplyReprice", ctx, "RNT-20260828-001", mock.Anything, mock.Anything, mock.Anything).
			Return(assert.AnError).Once()
		f.rentalRepo.On("ApplyReprice", ctx, "RNT-20260828-002", mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()

		f.ledgerRepo.On("GetOrCreateForDate", ctx, "2026-08-28").
			Return(ledgerWithStatus("2026-08-28", domain.LedgerStatusEnded), nil)
		f.rentalRepo.On("ListStartedBetween", ctx, from, to).Return(rentals, nil)
		f.rentalRepo.On("CountNewCustomers", ctx, from, to).Return(int32(0), nil)
		f.ledgerRepo.On("UpdateSummary", ctx, "2026-08-28", mock.Anything).Return(nil)
		f.alerts.On("SendReport", ctx, mock.Anything, mock.Anything).Return(nil)

		report, err := f.svc.RepriceHistorical(ctx, from, to, nil, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Changed)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "RNT-20260828-001")
	})

	t.Run("RejectsInvertedWindow", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		var valErr *domain.ValidationError
		_, err := f.svc.RepriceHistorical(ctx, to, from, nil, true)
		require.ErrorAs(t, err, &valErr)
	})
}

func TestDeduplicateLedgers(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)

	t.Run("KeepsEndedRemovesRest", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		ledgers := []domain.DailyLedger{
			{ID: 1, LedgerDate: "2026-08-27", Status: domain.LedgerStatusNotStarted},
			{ID: 2, LedgerDate: "2026-08-27", Status: domain.LedgerStatusEnded},
			{ID: 3, LedgerDate: "2026-08-27", Status: domain.LedgerStatusInProgress},
		}
		f.ledgerRepo.On("ListDuplicateDates", ctx).Return([]string{"2026-08-27"}, nil)
		f.ledgerRepo.On("ListAllByDate", ctx, "2026-08-27").Return(ledgers, nil)
		f.ledgerRepo.On("DeleteByID", ctx, int32(1)).Return(nil).Once()
		f.ledgerRepo.On("DeleteByID", ctx, int32(3)).Return(nil).Once()
		f.ledgerRepo.On("EnsureUniqueDateIndex", ctx).Return(nil).Once()
		f.alerts.On("SendReport", ctx, mock.Anything, mock.Anything).Return(nil)

		report, err := f.svc.DeduplicateLedgers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.GroupsFound)
		assert.Equal(t, 2, report.Removed)
		require.Len(t, report.Groups, 1)
		assert.Equal(t, int32(2), report.Groups[0].KeptID)
		assert.ElementsMatch(t, []int32{1, 3}, report.Groups[0].RemovedIDs)
		f.ledgerRepo.AssertExpectations(t)
	})

	t.Run("TieBreaksOnRevenue", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		ledgers := []domain.DailyLedger{
			{ID: 1, LedgerDate: "2026-08-27", Status: domain.LedgerStatusEnded,
				Summary: domain.LedgerSummary{TotalRevenuePaise: 1000}},
			{ID: 2, LedgerDate: "2026-08-27", Status: domain.LedgerStatusEnded,
				Summary: domain.LedgerSummary{TotalRevenuePaise: 50000}},
		}
		f.ledgerRepo.On("ListDuplicateDates", ctx).Return([]string{"2026-08-27"}, nil)
		f.ledgerRepo.On("ListAllByDate", ctx, "2026-08-27").Return(ledgers, nil)
		f.ledgerRepo.On("DeleteByID", ctx, int32(1)).Return(nil).Once()
		f.ledgerRepo.On("EnsureUniqueDateIndex", ctx).Return(nil)
		f.alerts.On("SendReport", ctx, mock.Anything, mock.Anything).Return(nil)

		report, err := f.svc.DeduplicateLedgers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), report.Groups[0].KeptID)
	})

	t.Run("NoDuplicatesStillRestoresIndex", func(t *testing.T) {
		f := newReconcileFixture(t, now)
		f.ledgerRepo.On("ListDuplicateDates", ctx).Return([]string{}, nil)
		f.ledgerRepo.On("EnsureUniqueDateIndex", ctx).Return(nil).Once()

		report, err := f.svc.DeduplicateLedgers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Removed)
		f.ledgerRepo.AssertExpectations(t)
		f.alerts.AssertNotCalled(t, "SendReport", mock.Anything, mock.Anything, mock.Anything)
	})
}
