package service

import (
	"context"
	"time"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/pricing"
)

// StartRentalInput carries the named fields of a start-rental request. Every
// optional field has a defined default; there is no free-form merging of
// request bodies into records.
type StartRentalInput struct {
	VehicleID  int32
	CustomerID int32
	Notes      string
}

type CompleteRentalInput struct {
	EndTime         *time.Time // nil means now
	PaymentMethod   string
	DiscountPaise   int64
	AdditionalPaise int64
	ConditionNotes  string
}

// RentalResult is a lifecycle outcome. Warning carries a soft-blacklist
// notice; Consistency is set when the secondary vehicle-flag write failed
// after retries but the primary transition succeeded.
type RentalResult struct {
	Rental      *domain.Rental             `json:"rental"`
	Warning     string                     `json:"warning,omitempty"`
	Consistency *domain.ConsistencyWarning `json:"consistency_warning,omitempty"`
}

type RentalService interface {
	StartRental(ctx context.Context, in StartRentalInput) (*RentalResult, error)
	CompleteRental(ctx context.Context, rentalID string, in CompleteRentalInput) (*RentalResult, error)
	CancelRental(ctx context.Context, rentalID, reason string, manualOverride bool) (*RentalResult, error)
	ChangeVehicle(ctx context.Context, rentalID string, newVehicleID int32) (*RentalResult, error)
	GetRental(ctx context.Context, rentalID string) (*domain.Rental, error)

	// QuoteRental prices an active rental as of now (or returns the stored
	// final amount for a completed one). Read-only.
	QuoteRental(ctx context.Context, rentalID string) (*pricing.Quote, error)
	// QuoteRange prices an arbitrary start/end pair with the current schedule.
	QuoteRange(ctx context.Context, start, end time.Time) (*pricing.Quote, error)
}

type LedgerService interface {
	GetOrCreate(ctx context.Context, date string) (*domain.DailyLedger, error)
	StartDay(ctx context.Context, date string, staffID int32, notes string) (*domain.DailyLedger, error)
	EndDay(ctx context.Context, date string, staffID int32, notes string, isAuto bool) (*domain.DailyLedger, error)
	RestartDay(ctx context.Context, date string, staffID int32, reason string) (*domain.DailyLedger, error)
}

// RepriceDelta is the per-rental outcome of a historical reprice run.
type RepriceDelta struct {
	RentalID   string `json:"rental_id"`
	OldPaise   int64  `json:"old_paise"`
	NewPaise   int64  `json:"new_paise"`
	DeltaPaise int64  `json:"delta_paise"`
}

// RepriceReport is the mandatory audit output of RepriceHistorical. Silent
// repricing is a defect, so every run returns one.
type RepriceReport struct {
	DryRun        bool           `json:"dry_run"`
	Examined      int            `json:"examined"`
	Changed       int            `json:"changed"`
	OldTotalPaise int64          `json:"old_total_paise"`
	NewTotalPaise int64          `json:"new_total_paise"`
	Deltas        []RepriceDelta `json:"deltas"`
	Errors        []string       `json:"errors,omitempty"`
}

type DedupGroup struct {
	Date       string  `json:"date"`
	KeptID     int32   `json:"kept_id"`
	RemovedIDs []int32 `json:"removed_ids"`
}

type DedupReport struct {
	GroupsFound int          `json:"groups_found"`
	Removed     int          `json:"removed"`
	Groups      []DedupGroup `json:"groups"`
	Errors      []string     `json:"errors,omitempty"`
}

type ReconciliationService interface {
	// RecomputeSummary rebuilds a ledger's summary from the rentals in its
	// effective window. Idempotent and total: an empty day yields all zeros.
	RecomputeSummary(ctx context.Context, date string) (*domain.LedgerSummary, error)

	// RepriceHistorical recomputes final amounts for completed rentals
	// started in [from, to) under the given schedule (current schedule when
	// nil) and reports every delta.
	RepriceHistorical(ctx context.Context, from, to time.Time, schedule *pricing.Schedule, dryRun bool) (*RepriceReport, error)

	// DeduplicateLedgers repairs historical duplicate-date rows and
	// re-establishes the uniqueness constraint.
	DeduplicateLedgers(ctx context.Context) (*DedupReport, error)
}

// BlacklistGate answers "may this customer book?". Blacklist management
// itself is an external concern.
type BlacklistGate interface {
	CheckCustomer(ctx context.Context, customerID int32) (domain.Clearance, error)
}

// AlertService delivers ops alerts for conditions that need manual attention.
type AlertService interface {
	SendConsistencyAlert(ctx context.Context, warning domain.ConsistencyWarning) error
	SendReport(ctx context.Context, subject, body string) error
}
