package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diewo77/billing-core/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error maps a kind-tagged error onto an HTTP status and a structured body.
// Only the caller-safe message is exposed; stack detail stays in the logs.
func Error(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	var e *apperr.Error
	msg := ""
	if errors.As(err, &e) {
		msg = e.Message
	}
	JSON(w, statusFor(kind), ErrorResponse{Error: string(kind), Message: msg})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindRender, apperr.KindDispatch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
