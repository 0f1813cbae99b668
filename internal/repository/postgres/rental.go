package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/repository"
)

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, vehicle_id, customer_id, start_time, end_time, status, final_amount_paise,
	discount_paise, additional_paise, payment_method, condition_notes, total_minutes,
	breakdown, cancellation, audit, repriced_at, notes, created_on, updated_on`

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	audit, err := marshalOrNull(rt.Audit)
	if err != nil {
		return err
	}
	query := `INSERT INTO rentals (id, vehicle_id, customer_id, start_time, status, discount_paise, additional_paise, audit, notes, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`
	_, err = r.db.ExecContext(ctx, query, rt.ID, rt.VehicleID, rt.CustomerID, rt.StartTime, rt.Status, rt.DiscountPaise, rt.AdditionalPaise, audit, rt.Notes)
	return err
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	return scanRental(r.db.QueryRowContext(ctx, query, id))
}

func (r *rentalRepository) ExistsID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rentals WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *rentalRepository) CountForDate(ctx context.Context, date string) (int32, error) {
	var count int32
	// id embeds the booking date, so the day's sequence is derived from the
	// id prefix rather than start_time (rounding can push start_time past
	// midnight).
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM rentals WHERE id LIKE '%-' || $1 || '-%'`, date).Scan(&count)
	return count, err
}

func (r *rentalRepository) Complete(ctx context.Context, rt *domain.Rental) (bool, error) {
	breakdown, err := marshalOrNull(rt.Breakdown)
	if err != nil {
		return false, err
	}
	query := `UPDATE rentals
	          SET status = $1, end_time = $2, final_amount_paise = $3, discount_paise = $4,
	              additional_paise = $5, payment_method = $6, condition_notes = $7,
	              total_minutes = $8, breakdown = $9, updated_on = NOW()
	          WHERE id = $10 AND status = 'ACTIVE'`
	result, err := r.db.ExecContext(ctx, query,
		rt.Status, rt.EndTime, rt.FinalAmountPaise, rt.DiscountPaise,
		rt.AdditionalPaise, rt.PaymentMethod, rt.ConditionNotes,
		rt.TotalMinutes, breakdown, rt.ID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *rentalRepository) Cancel(ctx context.Context, rt *domain.Rental) (bool, error) {
	cancellation, err := marshalOrNull(rt.Cancellation)
	if err != nil {
		return false, err
	}
	query := `UPDATE rentals
	          SET status = $1, end_time = $2, cancellation = $3, updated_on = NOW()
	          WHERE id = $4 AND status = 'ACTIVE'`
	result, err := r.db.ExecContext(ctx, query, rt.Status, rt.EndTime, cancellation, rt.ID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *rentalRepository) SwapVehicle(ctx context.Context, rentalID string, vehicleID int32, audit []domain.AuditEntry) (bool, error) {
	auditJSON, err := marshalOrNull(audit)
	if err != nil {
		return false, err
	}
	query := `UPDATE rentals SET vehicle_id = $1, audit = $2, updated_on = NOW()
	          WHERE id = $3 AND status = 'ACTIVE'`
	result, err := r.db.ExecContext(ctx, query, vehicleID, auditJSON, rentalID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *rentalRepository) ListStartedBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE start_time >= $1 AND start_time < $2 ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}

func (r *rentalRepository) CountNewCustomers(ctx context.Context, from, to time.Time) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM (
	            SELECT customer_id, min(start_time) AS first_start
	            FROM rentals GROUP BY customer_id
	          ) firsts
	          WHERE first_start >= $1 AND first_start < $2`
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(&count)
	return count, err
}

func (r *rentalRepository) ApplyReprice(ctx context.Context, id string, amountPaise int64, breakdown []domain.PricingBlock, repricedAt time.Time) error {
	breakdownJSON, err := marshalOrNull(breakdown)
	if err != nil {
		return err
	}
	query := `UPDATE rentals
	          SET final_amount_paise = $1, breakdown = $2, repriced_at = $3, updated_on = NOW()
	          WHERE id = $4 AND status = 'COMPLETED'`
	result, err := r.db.ExecContext(ctx, query, amountPaise, breakdownJSON, repricedAt, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rental %s is not completed, reprice skipped", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	var (
		endTime       sql.NullTime
		finalAmount   sql.NullInt64
		paymentMethod sql.NullString
		condition     sql.NullString
		breakdown     []byte
		cancellation  []byte
		audit         []byte
		repricedAt    sql.NullTime
		notes         sql.NullString
	)
	err := row.Scan(&rt.ID, &rt.VehicleID, &rt.CustomerID, &rt.StartTime, &endTime, &rt.Status,
		&finalAmount, &rt.DiscountPaise, &rt.AdditionalPaise, &paymentMethod, &condition,
		&rt.TotalMinutes, &breakdown, &cancellation, &audit, &repricedAt, &notes,
		&rt.CreatedOn, &rt.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		rt.EndTime = &endTime.Time
	}
	if finalAmount.Valid {
		rt.FinalAmountPaise = &finalAmount.Int64
	}
	rt.PaymentMethod = paymentMethod.String
	rt.ConditionNotes = condition.String
	rt.Notes = notes.String
	if repricedAt.Valid {
		rt.RepricedAt = &repricedAt.Time
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &rt.Breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown for rental %s: %w", rt.ID, err)
		}
	}
	if len(cancellation) > 0 {
		if err := json.Unmarshal(cancellation, &rt.Cancellation); err != nil {
			return nil, fmt.Errorf("decode cancellation for rental %s: %w", rt.ID, err)
		}
	}
	if len(audit) > 0 {
		if err := json.Unmarshal(audit, &rt.Audit); err != nil {
			return nil, fmt.Errorf("decode audit for rental %s: %w", rt.ID, err)
		}
	}
	return rt, nil
}

// marshalOrNull marshals a value for a JSONB column, mapping nil slices and
// nil pointers to SQL NULL.
func marshalOrNull(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case []domain.PricingBlock:
		if val == nil {
			return nil, nil
		}
	case []domain.AuditEntry:
		if val == nil {
			return nil, nil
		}
	case *domain.CancellationInfo:
		if val == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
