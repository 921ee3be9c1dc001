package handlers

import (
	"net/http"
	"strconv"

	"github.com/hindsightlabs/hindsight/internal/service"
)

const defaultStatsWindowDays = 30

type StatsHandler struct {
	svc *service.StatsService
}

func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	windowDays := defaultStatsWindowDays
	if s := r.URL.Query().Get("window_days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid window_days")
			return
		}
		windowDays = n
	}

	stats, err := h.svc.ComputeStats(r.Context(), windowDays)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
