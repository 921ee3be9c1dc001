package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/service"
)

type SnapshotHandler struct {
	svc *service.SnapshotService
}

func NewSnapshotHandler(svc *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{svc: svc}
}

type upsertSnapshotRequest struct {
	PostsJSON       string   `json:"posts_json,omitempty"`
	ContextJSON     string   `json:"context_json,omitempty"`
	MarkdownContent string   `json:"markdown_content"`
	KeyHypotheses   []string `json:"key_hypotheses,omitempty"`
	KeyEntities     []string `json:"key_entities,omitempty"`
}

func (h *SnapshotHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot date, want YYYY-MM-DD")
		return
	}

	var req upsertSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	overwrite, _ := strconv.ParseBool(r.URL.Query().Get("overwrite"))

	snap := &domain.Snapshot{
		SnapshotDate:    date,
		PostsJSON:       req.PostsJSON,
		ContextJSON:     req.ContextJSON,
		MarkdownContent: req.MarkdownContent,
		KeyHypotheses:   req.KeyHypotheses,
		KeyEntities:     req.KeyEntities,
	}
	if err := h.svc.Upsert(r.Context(), snap, overwrite); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *SnapshotHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot date, want YYYY-MM-DD")
		return
	}

	snap, err := h.svc.GetByDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Latest returns the most recent snapshot strictly before the given date
// (default today), the cross-day continuity read.
func (h *SnapshotHandler) Latest(w http.ResponseWriter, r *http.Request) {
	var before time.Time
	if s := r.URL.Query().Get("before"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid before date, want YYYY-MM-DD")
			return
		}
		before = t
	}

	snap, err := h.svc.LatestBefore(r.Context(), before)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *SnapshotHandler) Recent(w http.ResponseWriter, r *http.Request) {
	days := 0
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid days")
			return
		}
		days = n
	}

	snaps, err := h.svc.Recent(r.Context(), days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if snaps == nil {
		snaps = []domain.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

func (h *SnapshotHandler) Search(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if snaps == nil {
		snaps = []domain.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}
