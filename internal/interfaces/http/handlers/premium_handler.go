package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/RateCraft/internal/application/quoting"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

// PremiumHandler serves premium calculation and engine performance.
type PremiumHandler struct {
	svc    quoting.Service
	logger logging.Logger
}

func NewPremiumHandler(svc quoting.Service, logger logging.Logger) *PremiumHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PremiumHandler{svc: svc, logger: logger.Named("handlers.premium")}
}

// Calculate handles POST /api/v1/premiums/calculate.
func (h *PremiumHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	resp, err := h.svc.Calculate(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, resp)
}

// Performance handles GET /api/v1/metrics/performance.
func (h *PremiumHandler) Performance(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.svc.Performance(r.Context()))
}

type invalidateResponse struct {
	State   string `json:"state"`
	Removed int64  `json:"removed"`
}

// InvalidateState handles DELETE /api/v1/cache/states/{state}.
func (h *PremiumHandler) InvalidateState(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(chi.URLParam(r, "state"))
	if len(state) != 2 {
		writeAppError(w, r, h.logger, errors.InvalidParam("state must be a two-letter code"))
		return
	}
	n, err := h.svc.InvalidateState(r.Context(), state)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.logger.WithContext(r.Context()).Info("rating cache invalidated", logging.String("state", state), logging.Int64("removed", n))
	writeData(w, r, http.StatusOK, invalidateResponse{State: state, Removed: n})
}

//Personal.AI order the ending
