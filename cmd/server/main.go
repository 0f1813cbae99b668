package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	httpapi "rentaldesk-backend/internal/api/http"
	"rentaldesk-backend/internal/config"
	"rentaldesk-backend/internal/logger"
	"rentaldesk-backend/internal/pricing"
	"rentaldesk-backend/internal/repository/postgres"
	"rentaldesk-backend/internal/security"
	"rentaldesk-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Desk Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Business configuration", "timezone", cfg.Billing.Timezone, "booking_prefix", cfg.Billing.BookingPrefix)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.Auth.JWTSecret)

	// Initialize rate schedule provider: the stored schedule, falling back to
	// the configured default when the store is unreachable
	defaultSchedule, err := cfg.DefaultRateSchedule()
	if err != nil {
		log.Fatalf("Invalid default rate schedule: %v", err)
	}
	scheduleProvider := pricing.NewFallbackProvider(
		pricing.ProviderFunc(store.ScheduleRepository.Latest),
		defaultSchedule,
	)

	// Initialize Services
	loc := cfg.BusinessLocation()
	alertSvc := service.NewAlertService(cfg.Alert.SendGridAPIKey, cfg.Alert.FromEmail, cfg.Alert.OpsEmail)
	gate := service.NewBlacklistGate(store.CustomerRepository)
	rentalSvc := service.NewRentalService(
		store.RentalRepository,
		store.VehicleRepository,
		gate,
		scheduleProvider,
		alertSvc,
		service.RentalConfig{
			BookingPrefix:      cfg.Billing.BookingPrefix,
			CancellationWindow: time.Duration(cfg.Billing.CancellationWindowMinutes) * time.Minute,
			SubstitutionWindow: time.Duration(cfg.Billing.SubstitutionWindowMinutes) * time.Minute,
			StartRounding:      time.Duration(cfg.Billing.StartRoundingMinutes) * time.Minute,
			Location:           loc,
		},
	)
	reconSvc := service.NewReconciliationService(
		store.RentalRepository,
		store.LedgerRepository,
		scheduleProvider,
		alertSvc,
		loc,
	)
	ledgerSvc := service.NewLedgerService(store.LedgerRepository, reconSvc, loc)

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.RouterDeps{
		Rentals:      rentalSvc,
		Ledgers:      ledgerSvc,
		Reconcile:    reconSvc,
		Tokens:       tokenManager,
		AdminKeyHash: cfg.Auth.AdminKeyBcrypt,
	})

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
