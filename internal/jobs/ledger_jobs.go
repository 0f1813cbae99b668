package jobs

import (
	"context"
	"time"

	"rentaldesk-backend/internal/logger"
)

// AutoEndOpenLedgers ends business days that were left IN_PROGRESS past
// midnight. Staff forgetting to close the day must not leave open ledgers
// behind, so this runs shortly after the local day rolls over.
func (jr *JobRunner) AutoEndOpenLedgers() {
	jr.runWithRecovery("AutoEndOpenLedgers", func() {
		ctx := context.Background()
		today := time.Now().In(jr.config.BusinessLocation()).Format("2006-01-02")

		open, err := jr.store.LedgerRepository.ListInProgressBefore(ctx, today)
		if err != nil {
			logger.Error("Failed to list open ledgers", "error", err)
			return
		}
		if len(open) == 0 {
			logger.Info("No open ledgers to auto-end")
			return
		}

		ended := 0
		for _, stale := range open {
			ledger, err := jr.services.Ledger.EndDay(ctx, stale.LedgerDate, 0, "auto-ended by nightly job", true)
			if err != nil {
				logger.Error("Failed to auto-end ledger", "date", stale.LedgerDate, "error", err)
				continue
			}
			ended++
			logger.Info("Auto-ended business day", "date", stale.LedgerDate,
				"revenue_paise", ledger.Summary.TotalRevenuePaise)
		}
		logger.Info("Auto-end sweep finished", "candidates", len(open), "ended", ended)
	})
}

// RecomputeYesterdaySummary rebuilds yesterday's ledger summary so the books
// pick up any late completions or cancellations from after closing.
func (jr *JobRunner) RecomputeYesterdaySummary() {
	jr.runWithRecovery("RecomputeYesterdaySummary", func() {
		ctx := context.Background()
		loc := jr.config.BusinessLocation()
		yesterday := time.Now().In(loc).AddDate(0, 0, -1).Format("2006-01-02")

		summary, err := jr.services.Reconcile.RecomputeSummary(ctx, yesterday)
		if err != nil {
			logger.Error("Failed to recompute yesterday's summary", "date", yesterday, "error", err)
			return
		}
		logger.Info("Yesterday's summary recomputed", "date", yesterday,
			"revenue_paise", summary.TotalRevenuePaise,
			"bookings", summary.TotalBookings)
	})
}
