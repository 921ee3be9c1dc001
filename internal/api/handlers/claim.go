package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/service"
)

type ClaimHandler struct {
	svc *service.ClaimService
}

func NewClaimHandler(svc *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{svc: svc}
}

type createClaimRequest struct {
	ClaimText    string     `json:"claim_text"`
	AttributedTo string     `json:"attributed_to"`
	SourceURL    string     `json:"source_url,omitempty"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	BatchID      *uuid.UUID `json:"batch_id,omitempty"`
}

func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim := &domain.Claim{
		ClaimText:    req.ClaimText,
		AttributedTo: req.AttributedTo,
		SourceURL:    req.SourceURL,
		ClaimedAt:    req.ClaimedAt,
		BatchID:      req.BatchID,
	}
	if err := h.svc.Append(r.Context(), claim); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

func (h *ClaimHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	claim, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

type advanceClaimRequest struct {
	Status string `json:"status"`
}

func (h *ClaimHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req advanceClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Advance(r.Context(), id, domain.ClaimStatus(req.Status)); err != nil {
		writeServiceError(w, err)
		return
	}

	claim, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *ClaimHandler) Pending(w http.ResponseWriter, r *http.Request) {
	var window time.Duration
	if hrs := r.URL.Query().Get("window_hours"); hrs != "" {
		n, err := strconv.Atoi(hrs)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window_hours")
			return
		}
		window = time.Duration(n) * time.Hour
	}

	claims, err := h.svc.Pending(r.Context(), window, queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claims": emptyIfNilClaims(claims)})
}

// List serves lookups by actor or free-text search, depending on which
// query parameter is present.
func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		claims []domain.Claim
		err    error
	)
	switch {
	case r.URL.Query().Get("actor") != "":
		claims, err = h.svc.ByActor(r.Context(), r.URL.Query().Get("actor"), queryLimit(r))
	case r.URL.Query().Get("q") != "":
		claims, err = h.svc.Search(r.Context(), r.URL.Query().Get("q"), queryLimit(r))
	default:
		writeError(w, http.StatusBadRequest, "actor or q query parameter is required")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claims": emptyIfNilClaims(claims)})
}

func queryLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}

func emptyIfNilClaims(claims []domain.Claim) []domain.Claim {
	if claims == nil {
		return []domain.Claim{}
	}
	return claims
}
