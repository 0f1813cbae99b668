package postgres

import (
	"context"
	"database/sql"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id int32) (*domain.Customer, error) {
	c := &domain.Customer{}
	var reason sql.NullString
	query := `SELECT id, name, phone, blacklist_status, blacklist_reason FROM customers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.BlacklistStatus, &reason)
	if err != nil {
		return nil, err
	}
	c.BlacklistReason = reason.String
	return c, nil
}
