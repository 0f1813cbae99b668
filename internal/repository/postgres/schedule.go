package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"rentaldesk-backend/internal/pricing"
	"rentaldesk-backend/internal/repository"
)

type scheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Latest(ctx context.Context) (pricing.Schedule, error) {
	var (
		sched      pricing.Schedule
		multiplier string
	)
	query := `SELECT hourly_rate_paise, grace_minutes, block_minutes, night_charge_time, night_multiplier
	          FROM rate_schedules ORDER BY created_on DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&sched.HourlyRatePaise, &sched.GraceMinutes, &sched.BlockMinutes,
		&sched.NightChargeTime, &multiplier)
	if err != nil {
		return pricing.Schedule{}, err
	}
	sched.NightMultiplier, err = decimal.NewFromString(multiplier)
	if err != nil {
		return pricing.Schedule{}, fmt.Errorf("decode night multiplier: %w", err)
	}
	return sched, nil
}
