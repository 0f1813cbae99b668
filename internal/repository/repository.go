package repository

import (
	"context"
	"time"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/pricing"
)

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	ExistsID(ctx context.Context, id string) (bool, error)
	CountForDate(ctx context.Context, date string) (int32, error)

	// Complete and Cancel are conditional transitions guarded on the rental
	// still being ACTIVE; they return false without side effects when the
	// guard fails, so concurrent terminal transitions resolve to exactly one
	// winner.
	Complete(ctx context.Context, rental *domain.Rental) (bool, error)
	Cancel(ctx context.Context, rental *domain.Rental) (bool, error)

	// SwapVehicle moves an ACTIVE rental onto a new vehicle and replaces its
	// audit trail. Returns false if the rental is no longer active.
	SwapVehicle(ctx context.Context, rentalID string, vehicleID int32, audit []domain.AuditEntry) (bool, error)

	// ListStartedBetween returns rentals with start_time in [from, to).
	ListStartedBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error)

	// CountNewCustomers counts customers whose first-ever rental started in
	// [from, to).
	CountNewCustomers(ctx context.Context, from, to time.Time) (int32, error)

	// ApplyReprice overwrites the stored amount and breakdown of a completed
	// rental and stamps repriced_at.
	ApplyReprice(ctx context.Context, id string, amountPaise int64, breakdown []domain.PricingBlock, repricedAt time.Time) error
}

type VehicleRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Vehicle, error)

	// Claim atomically flips an available vehicle to unavailable. Returns
	// false when the vehicle was already claimed.
	Claim(ctx context.Context, id int32) (bool, error)

	// Release flips the vehicle back to available.
	Release(ctx context.Context, id int32) error
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Customer, error)
}

type LedgerRepository interface {
	// GetOrCreateForDate is an atomic insert-if-absent keyed on the date.
	// Concurrent first callers for the same date all receive the one row.
	GetOrCreateForDate(ctx context.Context, date string) (*domain.DailyLedger, error)
	GetByDate(ctx context.Context, date string) (*domain.DailyLedger, error)

	// Conditional state transitions; false means the guard status did not
	// match and nothing changed.
	StartDay(ctx context.Context, date string, staffID int32, notes string, at time.Time) (bool, error)
	EndDay(ctx context.Context, date string, staffID int32, notes string, at time.Time) (bool, error)
	Restart(ctx context.Context, date string, history []domain.RestartEntry) (bool, error)

	UpdateSummary(ctx context.Context, date string, summary domain.LedgerSummary) error

	// ListInProgressBefore returns ledgers still IN_PROGRESS dated strictly
	// before the given date. Used by the auto-end job.
	ListInProgressBefore(ctx context.Context, date string) ([]domain.DailyLedger, error)

	// Duplicate-repair support: historical data may predate the unique index.
	ListDuplicateDates(ctx context.Context) ([]string, error)
	ListAllByDate(ctx context.Context, date string) ([]domain.DailyLedger, error)
	DeleteByID(ctx context.Context, id int32) error
	EnsureUniqueDateIndex(ctx context.Context) error
}

type ScheduleRepository interface {
	// Latest returns the most recently saved rate schedule.
	Latest(ctx context.Context) (pricing.Schedule, error)
}
