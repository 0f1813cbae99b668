package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentaldesk-backend/internal/domain"
)

// BookingRef formats a booking reference like RNT-20260828-003. The sequence
// is per calendar day; callers collision-check against existing ids before
// accepting one.
func BookingRef(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), seq)
}

// BookingDateKey is the compact date segment embedded in a booking reference.
func BookingDateKey(day time.Time) string {
	return day.Format("20060102")
}

// NewAuditEntry builds an audit entry with a fresh identifier.
func NewAuditEntry(at time.Time, action, detail string) domain.AuditEntry {
	return domain.AuditEntry{
		ID:     uuid.NewString(),
		At:     at,
		Action: action,
		Detail: detail,
	}
}

// NewRestartEntry builds a ledger restart-history entry.
func NewRestartEntry(at time.Time, staffID int32, reason string) domain.RestartEntry {
	return domain.RestartEntry{
		ID:      uuid.NewString(),
		At:      at,
		StaffID: staffID,
		Reason:  reason,
	}
}
