package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/http/middleware"
	"github.com/xavierca1/matchday-leads/internal/usecase"
)

type LeadHandler struct {
	CreateLeadUC   *usecase.CreateLeadUseCase
	UpdateStatusUC *usecase.UpdateLeadStatusUseCase
	Queries        *usecase.LeadQueryUseCase
}

func NewLeadHandler(
	createLead *usecase.CreateLeadUseCase,
	updateStatus *usecase.UpdateLeadStatusUseCase,
	queries *usecase.LeadQueryUseCase,
) *LeadHandler {
	return &LeadHandler{
		CreateLeadUC:   createLead,
		UpdateStatusUC: updateStatus,
		Queries:        queries,
	}
}

// Create handles POST /api/leads.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	lead, err := h.CreateLeadUC.Execute(r.Context(), input)
	if err != nil {
		var rl *usecase.RateLimitedError
		if errors.As(err, &rl) {
			middleware.RecordIntakeRejection(rl.Reason)
		}
		writeError(w, err)
		return
	}

	middleware.RecordLeadCreated()
	writeSuccess(w, http.StatusCreated, "Lead created successfully", lead)
}

// List handles GET /api/leads?status=NEW,CONTACTED&email=&page=&limit=.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := usecase.ListLeadsInput{
		Status: q.Get("status"),
		Email:  q.Get("email"),
		Page:   queryInt(q.Get("page")),
		Limit:  queryInt(q.Get("limit")),
	}

	out, err := h.Queries.List(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Queries.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", lead)
}

// UpdateStatus handles PATCH /api/leads/{id}/status.
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadStatusInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	lead, err := h.UpdateStatusUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.RecordStatusTransition(lead.Status.String(), string(entity.ActorAdmin))
	writeSuccess(w, http.StatusOK, "Lead status updated to "+lead.Status.String(), lead)
}

func (h *LeadHandler) History(w http.ResponseWriter, r *http.Request) {
	out, err := h.Queries.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *LeadHandler) NextStatuses(w http.ResponseWriter, r *http.Request) {
	out, err := h.Queries.NextStatuses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

// queryInt returns 0 for missing or malformed values so the use case applies
// its defaults.
func queryInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
