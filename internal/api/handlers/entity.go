package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/service"
)

type EntityHandler struct {
	svc *service.EntityService
}

func NewEntityHandler(svc *service.EntityService) *EntityHandler {
	return &EntityHandler{svc: svc}
}

type recordStateRequest struct {
	Entity     string     `json:"entity"`
	Status     string     `json:"status"`
	AsOf       *time.Time `json:"as_of,omitempty"`
	Confidence float64    `json:"confidence"`
	SourceID   string     `json:"source_id,omitempty"`
}

func (h *EntityHandler) RecordState(w http.ResponseWriter, r *http.Request) {
	var req recordStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state := &domain.EntityState{
		Entity:     req.Entity,
		Status:     req.Status,
		AsOf:       req.AsOf,
		Confidence: req.Confidence,
		SourceID:   req.SourceID,
	}
	if err := h.svc.RecordState(r.Context(), state); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (h *EntityHandler) Current(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Current(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *EntityHandler) History(w http.ResponseWriter, r *http.Request) {
	var rng domain.StateRange
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := parseTimeParam(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from")
			return
		}
		rng.From = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := parseTimeParam(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to")
			return
		}
		rng.To = t
	}

	states, err := h.svc.History(r.Context(), chi.URLParam(r, "name"), rng)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if states == nil {
		states = []domain.EntityState{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"states": states})
}

func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	entities, err := h.svc.Entities(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entities == nil {
		entities = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": entities})
}
