package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/http/middleware"
	"github.com/xavierca1/matchday-leads/internal/usecase"
)

type QuoteHandler struct {
	GenerateUC  *usecase.GenerateQuoteUseCase
	PreviewUC   *usecase.PreviewQuoteUseCase
	RespondUC   *usecase.RespondQuoteUseCase
	FrontendURL string
}

func NewQuoteHandler(
	generate *usecase.GenerateQuoteUseCase,
	preview *usecase.PreviewQuoteUseCase,
	respond *usecase.RespondQuoteUseCase,
	frontendURL string,
) *QuoteHandler {
	return &QuoteHandler{
		GenerateUC:  generate,
		PreviewUC:   preview,
		RespondUC:   respond,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (h *QuoteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var input usecase.PreviewQuoteInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.PreviewUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

// Generate handles POST /api/quotes/generate.
func (h *QuoteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input usecase.GenerateQuoteInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.GenerateUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.RecordQuoteGenerated()
	middleware.RecordStatusTransition(out.LeadStatus.String(), string(entity.ActorSystem))
	writeSuccess(w, http.StatusCreated, "Quote generated and lead moved to "+out.LeadStatus.String(), out)
}

// Respond handles POST /api/quotes/{id}/respond with {"response": "accepted"|"declined"}.
func (h *QuoteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var input usecase.RespondQuoteInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.QuoteID = chi.URLParam(r, "id")

	out, err := h.respond(r, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Quote "+string(out.Quote.UserResponse), out)
}

// Accept and Decline are the links in the quote email. They answer with a
// redirect to the frontend instead of JSON.
func (h *QuoteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respondFromLink(w, r, entity.ResponseAccepted)
}

func (h *QuoteHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respondFromLink(w, r, entity.ResponseDeclined)
}

func (h *QuoteHandler) respondFromLink(w http.ResponseWriter, r *http.Request, response entity.QuoteResponse) {
	quoteID := chi.URLParam(r, "id")
	_, err := h.respond(r, usecase.RespondQuoteInput{QuoteID: quoteID, Response: string(response)})
	if err != nil {
		writeHTMLError(w, err)
		return
	}

	params := url.Values{}
	params.Set("quoteResponse", string(response))
	params.Set("quoteId", quoteID)
	http.Redirect(w, r, h.FrontendURL+"/?"+params.Encode(), http.StatusFound)
}

func (h *QuoteHandler) respond(r *http.Request, input usecase.RespondQuoteInput) (*usecase.RespondQuoteOutput, error) {
	out, err := h.RespondUC.Execute(r.Context(), input)
	if err != nil {
		return nil, err
	}
	middleware.RecordQuoteResponse(string(out.Quote.UserResponse))
	middleware.RecordStatusTransition(out.LeadStatus.String(), string(entity.ActorCustomer))
	return out, nil
}
