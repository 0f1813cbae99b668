package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/pricing"
)

type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}

func (m *MockRentalRepo) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalRepo) ExistsID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRentalRepo) CountForDate(ctx context.Context, date string) (int32, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockRentalRepo) Complete(ctx context.Context, rental *domain.Rental) (bool, error) {
	args := m.Called(ctx, rental)
	return args.Bool(0), args.Error(1)
}

func (m *MockRentalRepo) Cancel(ctx context.Context, rental *domain.Rental) (bool, error) {
	args := m.Called(ctx, rental)
	return args.Bool(0), args.Error(1)
}

func (m *MockRentalRepo) SwapVehicle(ctx context.Context, rentalID string, vehicleID int32, audit []domain.AuditEntry) (bool, error) {
	args := m.Called(ctx, rentalID, vehicleID, audit)
	return args.Bool(0), args.Error(1)
}

func (m *MockRentalRepo) ListStartedBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

func (m *MockRentalRepo) CountNewCustomers(ctx context.Context, from, to time.Time) (int32, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockRentalRepo) ApplyReprice(ctx context.Context, id string, amountPaise int64, breakdown []domain.PricingBlock, repricedAt time.Time) error {
	args := m.Called(ctx, id, amountPaise, breakdown, repricedAt)
	return args.Error(0)
}

type MockVehicleRepo struct {
	mock.Mock
}

func (m *MockVehicleRepo) GetByID(ctx context.Context, id int32) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepo) Claim(ctx context.Context, id int32) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockVehicleRepo) Release(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) GetByID(ctx context.Context, id int32) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) GetOrCreateForDate(ctx context.Context, date string) (*domain.DailyLedger, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DailyLedger), args.Error(1)
}

func (m *MockLedgerRepo) GetByDate(ctx context.Context, date string) (*domain.DailyLedger, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DailyLedger), args.Error(1)
}

func (m *MockLedgerRepo) StartDay(ctx context.Context, date string, staffID int32, notes string, at time.Time) (bool, error) {
	args := m.Called(ctx, date, staffID, notes, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepo) EndDay(ctx context.Context, date string, staffID int32, notes string, at time.Time) (bool, error) {
	args := m.Called(ctx, date, staffID, notes, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepo) Restart(ctx context.Context, date string, history []domain.RestartEntry) (bool, error) {
	args := m.Called(ctx, date, history)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepo) UpdateSummary(ctx context.Context, date string, summary domain.LedgerSummary) error {
	args := m.Called(ctx, date, summary)
	return args.Error(0)
}

func (m *MockLedgerRepo) ListInProgressBefore(ctx context.Context, date string) ([]domain.DailyLedger, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyLedger), args.Error(1)
}

func (m *MockLedgerRepo) ListDuplicateDates(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLedgerRepo) ListAllByDate(ctx context.Context, date string) ([]domain.DailyLedger, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyLedger), args.Error(1)
}

func (m *MockLedgerRepo) DeleteByID(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLedgerRepo) EnsureUniqueDateIndex(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockGate struct {
	mock.Mock
}

func (m *MockGate) CheckCustomer(ctx context.Context, customerID int32) (domain.Clearance, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(domain.Clearance), args.Error(1)
}

type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) SendConsistencyAlert(ctx context.Context, warning domain.ConsistencyWarning) error {
	args := m.Called(ctx, warning)
	return args.Error(0)
}

func (m *MockAlertService) SendReport(ctx context.Context, subject, body string) error {
	args := m.Called(ctx, subject, body)
	return args.Error(0)
}

type MockReconService struct {
	mock.Mock
}

func (m *MockReconService) RecomputeSummary(ctx context.Context, date string) (*domain.LedgerSummary, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSummary), args.Error(1)
}

func (m *MockReconService) RepriceHistorical(ctx context.Context, from, to time.Time, schedule *pricing.Schedule, dryRun bool) (*RepriceReport, error) {
	args := m.Called(ctx, from, to, schedule, dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RepriceReport), args.Error(1)
}

func (m *MockReconService) DeduplicateLedgers(ctx context.Context) (*DedupReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DedupReport), args.Error(1)
}
