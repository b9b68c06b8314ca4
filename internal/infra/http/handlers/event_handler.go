package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/matchday-leads/internal/usecase"
)

type EventHandler struct {
	Queries *usecase.EventQueryUseCase
}

func NewEventHandler(queries *usecase.EventQueryUseCase) *EventHandler {
	return &EventHandler{Queries: queries}
}

// List handles GET /api/events?active=&featured=.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.Queries.List(r.Context(), usecase.ListEventsInput{
		Active:   q.Get("active"),
		Featured: q.Get("featured"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Events fetched successfully", events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.Queries.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Event and packages fetched successfully", out)
}
