package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"rentaldesk-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.RentalRepository
	repository.VehicleRepository
	repository.CustomerRepository
	repository.LedgerRepository
	repository.ScheduleRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                 db,
		RentalRepository:   NewRentalRepository(db),
		VehicleRepository:  NewVehicleRepository(db),
		CustomerRepository: NewCustomerRepository(db),
		LedgerRepository:   NewLedgerRepository(db),
		ScheduleRepository: NewScheduleRepository(db),
	}
}
