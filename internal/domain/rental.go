package domain

import "time"

type RentalStatus string

const (
	RentalStatusActive    RentalStatus = "ACTIVE"
	RentalStatusCompleted RentalStatus = "COMPLETED"
	RentalStatusCancelled RentalStatus = "CANCELLED"
)

// PricingBlock is one billed block in a rental's breakdown, in chronological
// order. Start/End are the block's nominal span; Minutes is the elapsed time
// actually consumed inside it. RatePaise is the base rate for the block and
// ChargePaise the charge after the night surcharge, if any.
type PricingBlock struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Minutes       int       `json:"minutes"`
	RatePaise     int64     `json:"rate_paise"`
	ChargePaise   int64     `json:"charge_paise"`
	IsNightCharge bool      `json:"is_night_charge"`
}

type CancellationInfo struct {
	CancelledAt    time.Time `json:"cancelled_at"`
	Reason         string    `json:"reason"`
	WithinWindow   bool      `json:"within_window"`
	ManualOverride bool      `json:"manual_override"`
}

// AuditEntry records an in-flight change to an active rental, e.g. a vehicle
// substitution.
type AuditEntry struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Detail string    `json:"detail"`
}

type Rental struct {
	ID               string            `json:"id"` // e.g. RNT-20260828-003
	VehicleID        int32             `json:"vehicle_id"`
	CustomerID       int32             `json:"customer_id"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          *time.Time        `json:"end_time,omitempty"`
	Status           RentalStatus      `json:"status"`
	FinalAmountPaise *int64            `json:"final_amount_paise,omitempty"`
	DiscountPaise    int64             `json:"discount_paise"`
	AdditionalPaise  int64             `json:"additional_paise"`
	PaymentMethod    string            `json:"payment_method,omitempty"`
	ConditionNotes   string            `json:"condition_notes,omitempty"`
	TotalMinutes     int32             `json:"total_minutes"`
	Breakdown        []PricingBlock    `json:"breakdown,omitempty"`
	Cancellation     *CancellationInfo `json:"cancellation,omitempty"`
	Audit            []AuditEntry      `json:"audit,omitempty"`
	RepricedAt       *time.Time        `json:"repriced_at,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	CreatedOn        time.Time         `json:"created_on"`
	UpdatedOn        time.Time         `json:"updated_on"`
}
