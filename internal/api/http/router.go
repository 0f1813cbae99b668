package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentaldesk-backend/internal/security"
	"rentaldesk-backend/internal/service"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Rentals      service.RentalService
	Ledgers      service.LedgerService
	Reconcile    service.ReconciliationService
	Tokens       security.TokenManager
	AdminKeyHash string
}

// NewRouter builds the full API router. Staff endpoints require a Bearer
// token; admin endpoints require the X-Admin-Key header.
func NewRouter(deps RouterDeps) *mux.Router {
	rentalHandler := NewRentalHandler(deps.Rentals)
	ledgerHandler := NewLedgerHandler(deps.Ledgers)
	adminHandler := NewAdminHandler(deps.Reconcile)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	admin := router.PathPrefix("/api/v1/admin").Subrouter()
	admin.Use(AdminKeyMiddleware(deps.AdminKeyHash))

	admin.HandleFunc("/ledgers/{date}/recompute", adminHandler.RecomputeSummary).Methods("POST")
	admin.HandleFunc("/reprice", adminHandler.Reprice).Methods("POST")
	admin.HandleFunc("/ledgers/deduplicate", adminHandler.DeduplicateLedgers).Methods("POST")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(deps.Tokens))

	api.HandleFunc("/rentals", rentalHandler.StartRental).Methods("POST")
	api.HandleFunc("/rentals/{id}", rentalHandler.GetRental).Methods("GET")
	api.HandleFunc("/rentals/{id}/complete", rentalHandler.CompleteRental).Methods("POST")
	api.HandleFunc("/rentals/{id}/cancel", rentalHandler.CancelRental).Methods("POST")
	api.HandleFunc("/rentals/{id}/vehicle", rentalHandler.ChangeVehicle).Methods("PUT")
	api.HandleFunc("/rentals/{id}/quote", rentalHandler.QuoteRental).Methods("GET")
	api.HandleFunc("/quote", rentalHandler.QuoteRange).Methods("GET")

	api.HandleFunc("/ledgers/{date}", ledgerHandler.GetLedger).Methods("GET")
	api.HandleFunc("/ledgers/{date}/start", ledgerHandler.StartDay).Methods("POST")
	api.HandleFunc("/ledgers/{date}/end", ledgerHandler.EndDay).Methods("POST")
	api.HandleFunc("/ledgers/{date}/restart", ledgerHandler.RestartDay).Methods("POST")

	return router
}
