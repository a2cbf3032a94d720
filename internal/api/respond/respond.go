// Package respond renders the scheduler's JSON response envelopes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/routinely/routinely-server/internal/model"
)

// ErrorResponse is the envelope every failed request carries.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// ConflictResponse extends the error envelope with the sessions that blocked
// the write so clients can show what is in the way.
type ConflictResponse struct {
	ErrorResponse
	Conflicts []model.Session `json:"conflicts"`
}

func envelope(status int, message string) ErrorResponse {
	return ErrorResponse{Error: http.StatusText(status), Code: status, Message: message}
}

// WriteJSON marshals payload and writes it under the given status. Payloads
// are marshalled before any header is committed so an encoding failure can
// still produce a clean 500.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("failed to encode response payload")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError writes the standard error envelope for status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, envelope(status, message))
}

// WriteServiceError maps a service failure onto its HTTP status: validation
// 400, missing resources 404, schedule conflicts 409 with the overlapping
// sessions attached, store outages 503, anything unrecognized 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	var conflict *model.ConflictError
	switch {
	case errors.As(err, &conflict):
		WriteJSON(w, http.StatusConflict, ConflictResponse{
			ErrorResponse: envelope(http.StatusConflict, conflict.Error()),
			Conflicts:     conflict.Conflicts,
		})
	case errors.Is(err, model.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrUnavailable):
		WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// WriteBadRequest rejects a request the handler could not parse.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteInternalError reports a failure the caller cannot act on.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
