package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/logger"
	"rentaldesk-backend/internal/repository"
)

type blacklistGate struct {
	customerRepo repository.CustomerRepository
}

// NewBlacklistGate builds the booking-time clearance check backed by the
// customer records. Soft-listed customers may book with a warning; hard-listed
// customers are refused.
func NewBlacklistGate(customerRepo repository.CustomerRepository) BlacklistGate {
	return &blacklistGate{customerRepo: customerRepo}
}

func (g *blacklistGate) CheckCustomer(ctx context.Context, customerID int32) (domain.Clearance, error) {
	customer, err := g.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Clearance{}, &domain.ValidationError{Field: "customer_id", Reason: "customer not found"}
		}
		return domain.Clearance{}, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}

	switch customer.BlacklistStatus {
	case domain.BlacklistStatusHard:
		logger.Warn("Booking refused for hard-blacklisted customer", "customer_id", customerID)
		return domain.Clearance{
			CanBook: false,
			Reason:  "customer is blacklisted",
		}, nil
	case domain.BlacklistStatusSoft:
		return domain.Clearance{
			CanBook: true,
			Warning: "customer is on the watch list; verify identity and deposit",
		}, nil
	default:
		return domain.Clearance{CanBook: true}, nil
	}
}
