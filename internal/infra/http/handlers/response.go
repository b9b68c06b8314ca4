package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"

	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/usecase"
)

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Code       string              `json:"code"`
	Errors     []FieldError        `json:"errors,omitempty"`
	Allowed    []entity.LeadStatus `json:"allowed,omitempty"`
	RetryAfter int                 `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("⚠️ failed to encode response: %v", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, SuccessResponse{Success: true, Message: message, Data: data})
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Message: message, Code: code})
}

// decodeJSON reads the request body into dst and answers 400 itself when the
// body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	return true
}

// writeError maps use case errors to status codes. Anything unrecognised is
// logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	if body.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(body.RetryAfter*60))
	}
	writeJSON(w, status, body)
}

func errorBody(err error) (int, ErrorResponse) {
	var (
		ve usecase.ValidationErrors
		nf *usecase.NotFoundError
		tr *usecase.TransitionRejectedError
		rl *usecase.RateLimitedError
		ce *usecase.ConflictError
		te *usecase.TechnicalError
	)

	switch {
	case errors.As(err, &ve):
		fields := make([]FieldError, len(ve))
		for i, v := range ve {
			fields[i] = FieldError{Field: v.Field, Message: v.Message}
		}
		return http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Code: "VALIDATION_ERROR", Errors: fields}
	case errors.As(err, &nf):
		return http.StatusNotFound, ErrorResponse{Message: nf.Error(), Code: "NOT_FOUND"}
	case errors.As(err, &tr):
		return http.StatusBadRequest, ErrorResponse{Message: tr.Reason, Code: "INVALID_TRANSITION", Allowed: tr.Allowed}
	case errors.As(err, &rl):
		return http.StatusTooManyRequests, ErrorResponse{Message: rl.Message, Code: rl.Reason, RetryAfter: rl.RetryAfter}
	case errors.As(err, &ce):
		status := http.StatusConflict
		if ce.Gone {
			status = http.StatusGone
		}
		return status, ErrorResponse{Message: ce.Message, Code: ce.Code}
	case errors.As(err, &te):
		log.Printf("❌ %s: %v", te.Code, te)
		return http.StatusInternalServerError, ErrorResponse{Message: te.Message, Code: te.Code}
	default:
		log.Printf("❌ unexpected error: %v", err)
		return http.StatusInternalServerError, ErrorResponse{Message: "Internal server error", Code: "INTERNAL_ERROR"}
	}
}

// writeHTMLError is used by endpoints opened from email links, where a JSON
// body would be shown raw in the browser.
func writeHTMLError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<h1>%s</h1>", html.EscapeString(body.Message))
}
