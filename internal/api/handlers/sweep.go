package handlers

import (
	"net/http"
	"time"

	"github.com/hindsightlabs/hindsight/internal/service"
)

type SweepHandler struct {
	sweeper *service.SweeperService
}

func NewSweepHandler(sweeper *service.SweeperService) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// Trigger runs a sweep pass out of schedule.
func (h *SweepHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	result := h.sweeper.RunOnce(r.Context(), time.Now().UTC())
	writeJSON(w, http.StatusOK, result)
}
