package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/fsapi"
)

// Envelope status strings.
const (
	StatusOK             = "OK"
	StatusInvalidRequest = "invalid_request"
	StatusNoRoot         = "no_root"
	StatusNotFound       = "not_found"
	StatusInvalidPath    = "invalid_path"
	StatusBadRequest     = "bad_request"
	StatusMissingFile    = "missing_file"
	StatusTooLarge       = "too_large"
	StatusNotAllowed     = "method_not_allowed"
	StatusInternalError  = "internal_error"
)

// Status is the status block of every JSON response. Code mirrors the HTTP
// status code.
type Status struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Status  Status `json:"status"`
	Payload any    `json:"payload,omitempty"`
}

// WriteEnvelope writes payload wrapped in an Envelope.
func WriteEnvelope(w http.ResponseWriter, code int, status string, payload any) {
	if err := WriteJSON(w, code, Envelope{
		Status:  Status{Code: code, Status: status},
		Payload: payload,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteStatus writes an Envelope without payload.
func WriteStatus(w http.ResponseWriter, code int, status string) {
	WriteEnvelope(w, code, status, nil)
}

// HandleError writes the response matching err. Authentication failures
// all produce the same body whatever their reason.
func HandleError(w http.ResponseWriter, err error) {
	code, status := classifyError(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request error", "error", err)
	} else {
		slog.Debug("request rejected", "status", status, "error", err)
	}

	WriteStatus(w, code, status)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, fsapi.ErrUnauthorized), errors.Is(err, ErrMissingField):
		return http.StatusUnauthorized, StatusInvalidRequest
	case errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge, StatusTooLarge
	case errors.Is(err, ErrMalformedRequest):
		return http.StatusBadRequest, StatusBadRequest
	case errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest, StatusMissingFile
	case errors.Is(err, fsapi.ErrNoRoot):
		return http.StatusNotFound, StatusNoRoot
	case errors.Is(err, fsapi.ErrNotFound):
		return http.StatusNotFound, StatusNotFound
	case errors.Is(err, fsapi.ErrInvalidInput):
		return http.StatusBadRequest, StatusInvalidPath
	default:
		return http.StatusInternalServerError, StatusInternalError
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
