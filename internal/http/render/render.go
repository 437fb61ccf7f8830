package render

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/notification"
	"github.com/RaniyaAK/arts/internal/payment"
	"github.com/RaniyaAK/arts/internal/transaction"
	"github.com/RaniyaAK/arts/internal/validation"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`

	Current  commission.Status   `json:"current_status,omitempty"`
	Required []commission.Status `json:"required_status,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// Decode reads a JSON body into v, answering 400 itself when it cannot.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSON(w, r, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "malformed JSON body"})
		return false
	}

	return true
}

// BadRequest reports malformed request parameters.
func BadRequest(w http.ResponseWriter, r *http.Request, field, msg string) {
	JSON(w, r, http.StatusBadRequest, errorResponse{Error: "bad_request", Field: field, Message: msg})
}

// ID reads a UUID URL parameter, answering 400 itself when it is malformed.
func ID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		BadRequest(w, r, param, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

// Error maps a domain error to its status code. Unknown errors are logged and hidden.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classify(err)

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	JSON(w, r, status, resp)
}

func classify(err error) (int, errorResponse) {
	var (
		verr     *validation.Error
		conflict *commission.StateConflictError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, errorResponse{Error: "validation", Field: verr.Field, Message: verr.Message}
	case errors.As(err, &conflict):
		return http.StatusConflict, errorResponse{
			Error:    "state_conflict",
			Message:  conflict.Error(),
			Current:  conflict.Current,
			Required: conflict.Required,
		}
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid_credentials", Message: err.Error()}
	case errors.Is(err, commission.ErrNotAuthorized), errors.Is(err, identity.ErrNotAuthorized),
		errors.Is(err, identity.ErrNotApproved):
		return http.StatusForbidden, errorResponse{Error: "not_authorized", Message: err.Error()}
	case errors.Is(err, commission.ErrNotFound), errors.Is(err, identity.ErrNotFound),
		errors.Is(err, transaction.ErrNotFound), errors.Is(err, notification.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, identity.ErrEmailTaken):
		return http.StatusConflict, errorResponse{Error: "email_taken", Message: err.Error()}
	case errors.Is(err, commission.ErrAlreadyPaid):
		return http.StatusConflict, errorResponse{Error: "already_paid", Message: err.Error()}
	case errors.Is(err, commission.ErrInvalidStage):
		return http.StatusConflict, errorResponse{Error: "invalid_stage", Message: err.Error()}
	case errors.Is(err, commission.ErrNotSet):
		return http.StatusUnprocessableEntity, errorResponse{Error: "not_set", Message: err.Error()}
	case errors.Is(err, commission.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, errorResponse{Error: "invalid_amount", Message: err.Error()}
	case errors.Is(err, payment.ErrPaymentFailed):
		return http.StatusPaymentRequired, errorResponse{Error: "payment_failed", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"}
}
