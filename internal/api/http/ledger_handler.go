package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentaldesk-backend/internal/service"
)

// LedgerHandler exposes daily ledger operations over HTTP
type LedgerHandler struct {
	ledgers service.LedgerService
}

func NewLedgerHandler(ledgers service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgers: ledgers}
}

func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.ledgers.GetOrCreate(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

type dayActionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

func (h *LedgerHandler) StartDay(w http.ResponseWriter, r *http.Request) {
	var req dayActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ledger, err := h.ledgers.StartDay(r.Context(), mux.Vars(r)["date"], staffID(r), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (h *LedgerHandler) EndDay(w http.ResponseWriter, r *http.Request) {
	var req dayActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ledger, err := h.ledgers.EndDay(r.Context(), mux.Vars(r)["date"], staffID(r), req.Notes, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (h *LedgerHandler) RestartDay(w http.ResponseWriter, r *http.Request) {
	var req dayActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ledger, err := h.ledgers.RestartDay(r.Context(), mux.Vars(r)["date"], staffID(r), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

func staffID(r *http.Request) int32 {
	if claims, ok := StaffFromContext(r.Context()); ok {
		return claims.StaffID
	}
	return 0
}
