package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/matchday-leads/internal/usecase"
)

type VerificationHandler struct {
	UseCase     *usecase.EmailVerificationUseCase
	FrontendURL string
}

func NewVerificationHandler(uc *usecase.EmailVerificationUseCase, frontendURL string) *VerificationHandler {
	return &VerificationHandler{UseCase: uc, FrontendURL: strings.TrimRight(frontendURL, "/")}
}

// Send handles POST /api/verify-email/send.
func (h *VerificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var input usecase.RequestVerificationInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.UseCase.Request(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	if out.AlreadyVerified {
		writeSuccess(w, http.StatusOK, "Email already verified", out)
		return
	}
	writeSuccess(w, http.StatusOK, "Verification email sent. Please check your inbox.", out)
}

// Confirm handles the link from the verification email and sends the browser
// back to the frontend with the verified address.
func (h *VerificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	out, err := h.UseCase.Confirm(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeHTMLError(w, err)
		return
	}

	params := url.Values{}
	params.Set("emailVerified", "true")
	params.Set("email", out.Email)
	http.Redirect(w, r, h.FrontendURL+"/?"+params.Encode(), http.StatusFound)
}
