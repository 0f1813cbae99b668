package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/repository"
)

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

const ledgerColumns = `id, ledger_date, status, day_started, business_start_time, business_end_time,
	started_by, ended_by, notes, total_revenue_paise, total_bookings, completed_bookings,
	active_bookings, cancelled_bookings, new_customers, vehicles_used, average_booking_paise,
	operating_hours, revenue_per_hour_paise, restart_count, restart_history, created_on, updated_on`

// GetOrCreateForDate inserts the day's row if absent and reads it back. The
// unique index on ledger_date makes the insert a no-op for every concurrent
// caller but one; all of them then read the same row. Never read-then-write.
func (r *ledgerRepository) GetOrCreateForDate(ctx context.Context, date string) (*domain.DailyLedger, error) {
	insert := `INSERT INTO daily_ledgers (ledger_date, status, created_on, updated_on)
	           VALUES ($1, 'NOT_STARTED', NOW(), NOW())
	           ON CONFLICT (ledger_date) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, date); err != nil {
		return nil, err
	}
	return r.GetByDate(ctx, date)
}

func (r *ledgerRepository) GetByDate(ctx context.Context, date string) (*domain.DailyLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM daily_ledgers WHERE ledger_date = $1`
	return scanLedger(r.db.QueryRowContext(ctx, query, date))
}

func (r *ledgerRepository) StartDay(ctx context.Context, date string, staffID int32, notes string, at time.Time) (bool, error) {
	query := `UPDATE daily_ledgers
	          SET status = 'IN_PROGRESS', day_started = TRUE, business_start_time = $1,
	              started_by = $2, notes = $3, updated_on = NOW()
	          WHERE ledger_date = $4 AND status = 'NOT_STARTED'`
	result, err := r.db.ExecContext(ctx, query, at, staffID, notes, date)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *ledgerRepository) EndDay(ctx context.Context, date string, staffID int32, notes string, at time.Time) (bool, error) {
	query := `UPDATE daily_ledgers
	          SET status = 'ENDED', business_end_time = $1, ended_by = $2, notes = $3, updated_on = NOW()
	          WHERE ledger_date = $4 AND status = 'IN_PROGRESS'`
	result, err := r.db.ExecContext(ctx, query, at, staffID, notes, date)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *ledgerRepository) Restart(ctx context.Context, date string, history []domain.RestartEntry) (bool, error) {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return false, err
	}
	query := `UPDATE daily_ledgers
	          SET status = 'IN_PROGRESS', business_end_time = NULL, ended_by = NULL,
	              restart_count = restart_count + 1, restart_history = $1, updated_on = NOW()
	          WHERE ledger_date = $2 AND status = 'ENDED'`
	result, err := r.db.ExecContext(ctx, query, historyJSON, date)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *ledgerRepository) UpdateSummary(ctx context.Context, date string, s domain.LedgerSummary) error {
	query := `UPDATE daily_ledgers
	          SET total_revenue_paise = $1, total_bookings = $2, completed_bookings = $3,
	              active_bookings = $4, cancelled_bookings = $5, new_customers = $6,
	              vehicles_used = $7, average_booking_paise = $8, operating_hours = $9,
	              revenue_per_hour_paise = $10, updated_on = NOW()
	          WHERE ledger_date = $11`
	_, err := r.db.ExecContext(ctx, query,
		s.TotalRevenuePaise, s.TotalBookings, s.CompletedBookings,
		s.ActiveBookings, s.CancelledBookings, s.NewCustomers,
		s.VehiclesUsed, s.AverageBookingPaise, s.OperatingHours.String(),
		s.RevenuePerHourPaise.String(), date)
	return err
}

func (r *ledgerRepository) ListInProgressBefore(ctx context.Context, date string) ([]domain.DailyLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM daily_ledgers
	          WHERE status = 'IN_PROGRESS' AND ledger_date < $1 ORDER BY ledger_date`
	return r.queryLedgers(ctx, query, date)
}

func (r *ledgerRepository) ListDuplicateDates(ctx context.Context) ([]string, error) {
	query := `SELECT ledger_date FROM daily_ledgers GROUP BY ledger_date HAVING count(*) > 1`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

func (r *ledgerRepository) ListAllByDate(ctx context.Context, date string) ([]domain.DailyLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM daily_ledgers WHERE ledger_date = $1 ORDER BY id`
	return r.queryLedgers(ctx, query, date)
}

func (r *ledgerRepository) DeleteByID(ctx context.Context, id int32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM daily_ledgers WHERE id = $1`, id)
	return err
}

func (r *ledgerRepository) EnsureUniqueDateIndex(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS daily_ledgers_ledger_date_key ON daily_ledgers (ledger_date)`)
	return err
}

func (r *ledgerRepository) queryLedgers(ctx context.Context, query string, args ...interface{}) ([]domain.DailyLedger, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ledgers []domain.DailyLedger
	for rows.Next() {
		ledger, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		ledgers = append(ledgers, *ledger)
	}
	return ledgers, rows.Err()
}

func scanLedger(row rowScanner) (*domain.DailyLedger, error) {
	l := &domain.DailyLedger{}
	var (
		start          sql.NullTime
		end            sql.NullTime
		startedBy      sql.NullInt32
		endedBy        sql.NullInt32
		notes          sql.NullString
		operatingHours string
		revenuePerHour string
		history        []byte
	)
	err := row.Scan(&l.ID, &l.LedgerDate, &l.Status, &l.DayStarted, &start, &end,
		&startedBy, &endedBy, &notes, &l.Summary.TotalRevenuePaise, &l.Summary.TotalBookings,
		&l.Summary.CompletedBookings, &l.Summary.ActiveBookings, &l.Summary.CancelledBookings,
		&l.Summary.NewCustomers, &l.Summary.VehiclesUsed, &l.Summary.AverageBookingPaise,
		&operatingHours, &revenuePerHour, &l.RestartCount, &history, &l.CreatedOn, &l.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		l.BusinessStartTime = &start.Time
	}
	if end.Valid {
		l.BusinessEndTime = &end.Time
	}
	if startedBy.Valid {
		l.StartedBy = &startedBy.Int32
	}
	if endedBy.Valid {
		l.EndedBy = &endedBy.Int32
	}
	l.Notes = notes.String
	l.Summary.OperatingHours, err = decimal.NewFromString(operatingHours)
	if err != nil {
		return nil, fmt.Errorf("decode operating hours for ledger %s: %w", l.LedgerDate, err)
	}
	l.Summary.RevenuePerHourPaise, err = decimal.NewFromString(revenuePerHour)
	if err != nil {
		return nil, fmt.Errorf("decode revenue per hour for ledger %s: %w", l.LedgerDate, err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &l.RestartHistory); err != nil {
			return nil, fmt.Errorf("decode restart history for ledger %s: %w", l.LedgerDate, err)
		}
	}
	return l, nil
}
