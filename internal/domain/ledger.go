package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerStatus string

const (
	LedgerStatusNotStarted LedgerStatus = "NOT_STARTED"
	LedgerStatusInProgress LedgerStatus = "IN_PROGRESS"
	LedgerStatusEnded      LedgerStatus = "ENDED"
)

// LedgerSummary is derived data: it can be rebuilt at any time from the
// rentals whose start time falls in the ledger's effective window.
type LedgerSummary struct {
	TotalRevenuePaise   int64           `json:"total_revenue_paise"`
	TotalBookings       int32           `json:"total_bookings"`
	CompletedBookings   int32           `json:"completed_bookings"`
	ActiveBookings      int32           `json:"active_bookings"`
	CancelledBookings   int32           `json:"cancelled_bookings"`
	NewCustomers        int32           `json:"new_customers"`
	VehiclesUsed        int32           `json:"vehicles_used"`
	AverageBookingPaise int64           `json:"average_booking_paise"`
	OperatingHours      decimal.Decimal `json:"operating_hours"`
	RevenuePerHourPaise decimal.Decimal `json:"revenue_per_hour_paise"`
}

type RestartEntry struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	StaffID int32     `json:"staff_id"`
	Reason  string    `json:"reason"`
}

// DailyLedger is the single per-date operational record. Exactly one row
// exists per business-local calendar date; creation goes through an atomic
// insert-if-absent keyed on LedgerDate.
type DailyLedger struct {
	ID                int32          `json:"id"`
	LedgerDate        string         `json:"ledger_date"` // yyyy-mm-dd, business-local
	Status            LedgerStatus   `json:"status"`
	DayStarted        bool           `json:"day_started"`
	BusinessStartTime *time.Time     `json:"business_start_time,omitempty"`
	BusinessEndTime   *time.Time     `json:"business_end_time,omitempty"`
	StartedBy         *int32         `json:"started_by,omitempty"`
	EndedBy           *int32         `json:"ended_by,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	Summary           LedgerSummary  `json:"summary"`
	RestartCount      int32          `json:"restart_count"`
	RestartHistory    []RestartEntry `json:"restart_history,omitempty"`
	CreatedOn         time.Time      `json:"created_on"`
	UpdatedOn         time.Time      `json:"updated_on"`
}
