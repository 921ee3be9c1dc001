package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/service"
)

type HypothesisHandler struct {
	svc *service.HypothesisService
}

func NewHypothesisHandler(svc *service.HypothesisService) *HypothesisHandler {
	return &HypothesisHandler{svc: svc}
}

type proposeHypothesisRequest struct {
	Statement            string               `json:"statement"`
	BasedOn              []domain.EvidenceRef `json:"based_on,omitempty"`
	FalsifiableCondition string               `json:"falsifiable_condition"`
	VerificationDeadline *time.Time           `json:"verification_deadline,omitempty"`
	Confidence           *float64             `json:"confidence,omitempty"`
}

func (h *HypothesisHandler) Propose(w http.ResponseWriter, r *http.Request) {
	var req proposeHypothesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Absent confidence means uncommitted; an explicit 0 is kept as stated.
	confidence := 0.5
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	hyp := &domain.Hypothesis{
		Statement:            req.Statement,
		BasedOn:              req.BasedOn,
		FalsifiableCondition: req.FalsifiableCondition,
		VerificationDeadline: req.VerificationDeadline,
		Confidence:           confidence,
	}
	if err := h.svc.Propose(r.Context(), hyp); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hyp)
}

func (h *HypothesisHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return
	}

	hyp, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hyp)
}

type evidenceRequest struct {
	Evidence *domain.EvidenceRef `json:"evidence,omitempty"`
}

func (h *HypothesisHandler) Support(w http.ResponseWriter, r *http.Request) {
	h.recordEvidence(w, r, h.svc.RecordSupport)
}

func (h *HypothesisHandler) Refute(w http.ResponseWriter, r *http.Request) {
	h.recordEvidence(w, r, h.svc.RecordRefute)
}

func (h *HypothesisHandler) recordEvidence(w http.ResponseWriter, r *http.Request,
	record func(ctx context.Context, id uuid.UUID, ref *domain.EvidenceRef) (*domain.Hypothesis, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return
	}

	var req evidenceRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	hyp, err := record(r.Context(), id, req.Evidence)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hyp)
}

type resolveHypothesisRequest struct {
	Outcome    string     `json:"outcome"`
	Notes      string     `json:"notes,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (h *HypothesisHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return
	}

	var req resolveHypothesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var at time.Time
	if req.ResolvedAt != nil {
		at = *req.ResolvedAt
	}

	hyp, err := h.svc.Resolve(r.Context(), id, domain.HypothesisStatus(req.Outcome), req.Notes, at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hyp)
}

func (h *HypothesisHandler) Pending(w http.ResponseWriter, r *http.Request) {
	hyps, err := h.svc.Pending(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hypotheses": emptyIfNilHypotheses(hyps)})
}

func (h *HypothesisHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	hyps, err := h.svc.Overdue(r.Context(), time.Now().UTC())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hypotheses": emptyIfNilHypotheses(hyps)})
}

func (h *HypothesisHandler) RecentResolved(w http.ResponseWriter, r *http.Request) {
	hyps, err := h.svc.RecentResolved(r.Context(), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hypotheses": emptyIfNilHypotheses(hyps)})
}

func emptyIfNilHypotheses(hyps []domain.Hypothesis) []domain.Hypothesis {
	if hyps == nil {
		return []domain.Hypothesis{}
	}
	return hyps
}
