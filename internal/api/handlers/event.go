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

type EventHandler struct {
	svc *service.EventService
}

func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

type createEventRequest struct {
	Statement  string             `json:"statement"`
	OccurredAt *time.Time         `json:"occurred_at,omitempty"`
	Sources    []domain.SourceRef `json:"sources,omitempty"`
	Entities   []string           `json:"entities"`
	Tags       []string           `json:"tags,omitempty"`
	ActionType string             `json:"action_type"`
	Status     string             `json:"status,omitempty"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event := &domain.Event{
		Statement:  req.Statement,
		OccurredAt: req.OccurredAt,
		Sources:    req.Sources,
		Entities:   req.Entities,
		Tags:       req.Tags,
		ActionType: domain.ActionType(req.ActionType),
		Status:     domain.EventStatus(req.Status),
	}
	if err := h.svc.Append(r.Context(), event); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	event, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Retract(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := h.svc.Retract(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retracted"})
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.EventFilter{
		Entity: q.Get("entity"),
	}
	if s := q.Get("status"); s != "" {
		status := domain.EventStatus(s)
		filter.Status = &status
	}
	if s := q.Get("from"); s != "" {
		t, err := parseTimeParam(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from")
			return
		}
		filter.From = t
	}
	if s := q.Get("to"); s != "" {
		t, err := parseTimeParam(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to")
			return
		}
		filter.To = t
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	events, err := h.svc.Query(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": emptyIfNilEvents(events)})
}

// Actions lists unretracted real-world actions inside [start, end).
func (h *EventHandler) Actions(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, err := parseTimeParam(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end")
		return
	}

	events, err := h.svc.ActionsInWindow(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": emptyIfNilEvents(events)})
}

func emptyIfNilEvents(events []domain.Event) []domain.Event {
	if events == nil {
		return []domain.Event{}
	}
	return events
}
