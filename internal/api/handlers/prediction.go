package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/service"
)

type PredictionHandler struct {
	svc *service.PredictionService
}

func NewPredictionHandler(svc *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{svc: svc}
}

type createPredictionRequest struct {
	Question      string      `json:"question"`
	Prediction    string      `json:"prediction"`
	Confidence    int         `json:"confidence"`
	Reasoning     string      `json:"reasoning,omitempty"`
	Category      string      `json:"category"`
	Region        string      `json:"region,omitempty"`
	MadeAt        string      `json:"made_at,omitempty"`
	ResolveBy     string      `json:"resolve_by"`
	SourcePostIDs []uuid.UUID `json:"source_post_ids,omitempty"`
	SourceFactIDs []uuid.UUID `json:"source_fact_ids,omitempty"`
	ReportID      *uuid.UUID  `json:"report_id,omitempty"`
}

func (h *PredictionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pred := &domain.Prediction{
		Question:      req.Question,
		Prediction:    req.Prediction,
		Confidence:    req.Confidence,
		Reasoning:     req.Reasoning,
		Category:      domain.Category(req.Category),
		Region:        req.Region,
		SourcePostIDs: req.SourcePostIDs,
		SourceFactIDs: req.SourceFactIDs,
		ReportID:      req.ReportID,
	}
	if req.MadeAt != "" {
		t, err := parseTimeParam(req.MadeAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid made_at")
			return
		}
		pred.MadeAt = t
	}
	if req.ResolveBy != "" {
		t, err := parseTimeParam(req.ResolveBy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid resolve_by")
			return
		}
		pred.ResolveBy = t
	}

	if err := h.svc.Create(r.Context(), pred); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pred)
}

func (h *PredictionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	pred, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

type resolvePredictionRequest struct {
	Outcome    string     `json:"outcome"`
	Notes      string     `json:"notes,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (h *PredictionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	var req resolvePredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var at time.Time
	if req.ResolvedAt != nil {
		at = *req.ResolvedAt
	}

	pred, err := h.svc.Resolve(r.Context(), id, domain.PredictionStatus(req.Outcome), req.Notes, at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func (h *PredictionHandler) Due(w http.ResponseWriter, r *http.Request) {
	preds, err := h.svc.Due(r.Context(), time.Now().UTC())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if preds == nil {
		preds = []domain.Prediction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": preds})
}
