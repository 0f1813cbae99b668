package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentaldesk-backend/internal/domain"
)

func newRentalMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func rentalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "vehicle_id", "customer_id", "start_time", "end_time", "status",
		"final_amount_paise", "discount_paise", "additional_paise", "payment_method",
		"condition_notes", "total_minutes", "breakdown", "cancellation", "audit",
		"repriced_at", "notes", "created_on", "updated_on",
	})
}

func TestRentalRepository_Create(t *testing.T) {
	db, mock := newRentalMock(t)
	repo := NewRentalRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	rental := &domain.Rental{
		ID:         "RNT-20260828-001",
		VehicleID:  3,
		CustomerID: 7,
		StartTime:  start,
		Status:     domain.RentalStatusActive,
	}

	mock.ExpectExec("INSERT INTO rentals").
		WithArgs(rental.ID, rental.VehicleID, rental.CustomerID, start,
			string(domain.RentalStatusActive), int64(0), int64(0), nil, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(ctx, rental)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_GetByID(t *testing.T) {
	db, mock := newRentalMock(t)
	repo := NewRentalRepository(db)
	ctx := context.Background()

	t.Run("ActiveRentalWithNulls", func(t *testing.T) {
		now := time.Now()
		rows := rentalRows().AddRow(
			"RNT-20260828-001", 3, 7, now, nil, "ACTIVE",
			nil, 0, 0, nil, nil, 0, nil, nil, nil, nil, nil, now, now,
		)
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs("RNT-20260828-001").
			WillReturnRows(rows)

		rental, err := repo.GetByID(ctx, "RNT-20260828-001")
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusActive, rental.Status)
		assert.Nil(t, rental.EndTime)
		assert.Nil(t, rental.FinalAmountPaise)
		assert.Nil(t, rental.Breakdown)
	})

	t.Run("CompletedRentalWithBreakdown", func(t *testing.T) {
		now := time.Now()
		breakdown := `[{"start":"2026-08-28T10:00:00Z","end":"2026-08-28T11:15:00Z","minutes":75,"rate_paise":8000,"charge_paise":8000,"is_night_charge":false}]`
		rows := rentalRows().AddRow(
			"RNT-20260828-001", 3, 7, now, now, "COMPLETED",
			12000, 0, 0, "cash", "scratch on fender", 90, []byte(breakdown), nil, nil, nil, nil, now, now,
		)
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs("RNT-20260828-001").
			WillReturnRows(rows)

		rental, err := repo.GetByID(ctx, "RNT-20260828-001")
		require.NoError(t, err)
		require.NotNil(t, rental.FinalAmountPaise)
		assert.Equal(t, int64(12000), *rental.FinalAmountPaise)
		require.Len(t, rental.Breakdown, 1)
		assert.Equal(t, int64(8000), rental.Breakdown[0].ChargePaise)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs("RNT-20260828-999").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "RNT-20260828-999")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestRentalRepository_Complete(t *testing.T) {
	db, mock := newRentalMock(t)
	repo := NewRentalRepository(db)
	ctx := context.Background()

	end := time.Date(2026, 8, 28, 11, 30, 0, 0, time.UTC)
	amount := int64(12000)
	rental := &domain.Rental{
		ID:               "RNT-20260828-001",
		Status:           domain.RentalStatusCompleted,
		EndTime:          &end,
		FinalAmountPaise: &amount,
		TotalMinutes:     90,
	}

	t.Run("Wins", func(t *testing.T) {
		mock.ExpectExec("UPDATE rentals").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Complete(ctx, rental)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("LosesWhenNoLongerActive", func(t *testing.T) {
		// The WHERE status = 'ACTIVE' guard matched nothing.
		mock.ExpectExec("UPDATE rentals").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Complete(ctx, rental)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRentalRepository_CountForDate(t *testing.T) {
	db, mock := newRentalMock(t)
	repo := NewRentalRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM rentals WHERE id LIKE").
		WithArgs("20260828").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountForDate(context.Background(), "20260828")
	require.NoError(t, err)
	assert.Equal(t, int32(5), count)
}

func TestRentalRepository_ApplyReprice(t *testing.T) {
	db, mock := newRentalMock(t)
	repo := NewRentalRepository(db)
	ctx := context.Background()
	at := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE rentals").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyReprice(ctx, "RNT-20260828-001", 11000, nil, at)
		assert.NoError(t, err)
	})

	t.Run("NotCompletedFails", func(t *testing.T) {
		mock.ExpectExec("UPDATE rentals").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ApplyReprice(ctx, "RNT-20260828-001", 11000, nil, at)
		assert.Error(t, err)
	})
}

func TestVehicleRepository_Claim(t *testing.T) {
	db, mock := newRentalMock(t)
	repo := NewVehicleRepository(db)
	ctx := context.Background()

	t.Run("Available", func(t *testing.T) {
		mock.ExpectExec("UPDATE vehicles").
			WithArgs(int32(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Claim(ctx, 3)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("AlreadyClaimed", func(t *testing.T) {
		mock.ExpectExec("UPDATE vehicles").
			WithArgs(int32(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Claim(ctx, 3)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
