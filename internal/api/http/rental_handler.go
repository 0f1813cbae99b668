package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/service"
)

// RentalHandler exposes the rental lifecycle over HTTP
type RentalHandler struct {
	rentals service.RentalService
}

func NewRentalHandler(rentals service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

type startRentalRequest struct {
	VehicleID  int32  `json:"vehicle_id"`
	CustomerID int32  `json:"customer_id"`
	Notes      string `json:"notes"`
}

func (h *RentalHandler) StartRental(w http.ResponseWriter, r *http.Request) {
	var req startRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.rentals.StartRental(r.Context(), service.StartRentalInput{
		VehicleID:  req.VehicleID,
		CustomerID: req.CustomerID,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type completeRentalRequest struct {
	EndTime         *time.Time `json:"end_time"`
	PaymentMethod   string     `json:"payment_method"`
	DiscountPaise   int64      `json:"discount_paise"`
	AdditionalPaise int64      `json:"additional_paise"`
	ConditionNotes  string     `json:"condition_notes"`
}

func (h *RentalHandler) CompleteRental(w http.ResponseWriter, r *http.Request) {
	rentalID := mux.Vars(r)["id"]

	var req completeRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.rentals.CompleteRental(r.Context(), rentalID, service.CompleteRentalInput{
		EndTime:         req.EndTime,
		PaymentMethod:   req.PaymentMethod,
		DiscountPaise:   req.DiscountPaise,
		AdditionalPaise: req.AdditionalPaise,
		ConditionNotes:  req.ConditionNotes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type cancelRentalRequest struct {
	Reason         string `json:"reason"`
	ManualOverride bool   `json:"manual_override"`
}

func (h *RentalHandler) CancelRental(w http.ResponseWriter, r *http.Request) {
	rentalID := mux.Vars(r)["id"]

	var req cancelRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.rentals.CancelRental(r.Context(), rentalID, req.Reason, req.ManualOverride)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type changeVehicleRequest struct {
	NewVehicleID int32 `json:"new_vehicle_id"`
}

func (h *RentalHandler) ChangeVehicle(w http.ResponseWriter, r *http.Request) {
	rentalID := mux.Vars(r)["id"]

	var req changeVehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.rentals.ChangeVehicle(r.Context(), rentalID, req.NewVehicleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.rentals.GetRental(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) QuoteRental(w http.ResponseWriter, r *http.Request) {
	quote, err := h.rentals.QuoteRental(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// QuoteRange prices an arbitrary window without touching any records, for
// counter staff quoting a customer before booking.
func (h *RentalHandler) QuoteRange(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}

	quote, err := h.rentals.QuoteRange(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, &domain.ValidationError{Field: name, Reason: "required"}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: name, Reason: "must be RFC3339"}
	}
	return t, nil
}
