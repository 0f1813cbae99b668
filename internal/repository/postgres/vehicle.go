package postgres

import (
	"context"
	"database/sql"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/repository"
)

type vehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) GetByID(ctx context.Context, id int32) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	query := `SELECT id, plate_number, model, is_available FROM vehicles WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.PlateNumber, &v.Model, &v.IsAvailable)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Claim is the vehicle-level mutual exclusion: the conditional update
// succeeds for exactly one of any number of concurrent claimers.
func (r *vehicleRepository) Claim(ctx context.Context, id int32) (bool, error) {
	query := `UPDATE vehicles SET is_available = FALSE, updated_on = NOW()
	          WHERE id = $1 AND is_available = TRUE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *vehicleRepository) Release(ctx context.Context, id int32) error {
	query := `UPDATE vehicles SET is_available = TRUE, updated_on = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
