package domain

import (
	"fmt"
	"time"
)

// ValidationError reports malformed or out-of-range input. It is surfaced to
// the caller immediately and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports a rejected state transition (unavailable vehicle,
// rental no longer active, day already started, ...). The operation has no
// side effects when a ConflictError is returned.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// ReconciliationError is a per-record failure inside a batch job. It never
// aborts the batch; the job collects these and reports them at the end.
type ReconciliationError struct {
	Ref string // rental id or ledger date
	Err error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failed for %s: %v", e.Ref, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// ConsistencyWarning is not an error: the primary operation succeeded but the
// secondary vehicle-flag write failed after retries. It is attached to the
// result, logged, and alerted for manual repair.
type ConsistencyWarning struct {
	ID        string    `json:"id"`
	RentalID  string    `json:"rental_id"`
	VehicleID int32     `json:"vehicle_id"`
	Operation string    `json:"operation"`
	Detail    string    `json:"detail"`
	At        time.Time `json:"at"`
}
