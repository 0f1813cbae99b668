package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/pricing"
	"rentaldesk-backend/internal/service"
)

// AdminHandler exposes reconciliation operations. These endpoints mutate
// historical records and sit behind the admin key, not the staff token.
type AdminHandler struct {
	recon service.ReconciliationService
}

func NewAdminHandler(recon service.ReconciliationService) *AdminHandler {
	return &AdminHandler{recon: recon}
}

func (h *AdminHandler) RecomputeSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.recon.RecomputeSummary(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type repriceRequest struct {
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Schedule *scheduleRequest `json:"schedule"`
	DryRun   bool             `json:"dry_run"`
}

type scheduleRequest struct {
	HourlyRatePaise int64  `json:"hourly_rate_paise"`
	GraceMinutes    int    `json:"grace_minutes"`
	BlockMinutes    int    `json:"block_minutes"`
	NightChargeTime string `json:"night_charge_time"`
	NightMultiplier string `json:"night_multiplier"`
}

func (h *AdminHandler) Reprice(w http.ResponseWriter, r *http.Request) {
	var req repriceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var sched *pricing.Schedule
	if req.Schedule != nil {
		mult, err := decimal.NewFromString(req.Schedule.NightMultiplier)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "schedule.night_multiplier", Reason: "must be a decimal number"})
			return
		}
		sched = &pricing.Schedule{
			HourlyRatePaise: req.Schedule.HourlyRatePaise,
			GraceMinutes:    req.Schedule.GraceMinutes,
			BlockMinutes:    req.Schedule.BlockMinutes,
			NightChargeTime: req.Schedule.NightChargeTime,
			NightMultiplier: mult,
		}
	}

	report, err := h.recon.RepriceHistorical(r.Context(), req.From, req.To, sched, req.DryRun)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) DeduplicateLedgers(w http.ResponseWriter, r *http.Request) {
	report, err := h.recon.DeduplicateLedgers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
