package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/baharkarakas/point-service/internal/models"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// WriteServiceError maps a ledger error to its HTTP status and code.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidID):
		WriteError(w, http.StatusBadRequest, "INVALID_ID", "account id must be positive", nil)
	case errors.Is(err, models.ErrInvalidAmount):
		WriteError(w, http.StatusBadRequest, "INVALID_AMOUNT", "amount must be between 1 and 1000000", nil)
	case errors.Is(err, models.ErrExceedBalance):
		WriteError(w, http.StatusUnprocessableEntity, "EXCEED_BALANCE", "balance would exceed maximum", nil)
	case errors.Is(err, models.ErrInsufficientBalance):
		WriteError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "insufficient balance", nil)
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "account not found", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		WriteError(w, http.StatusServiceUnavailable, "TIMEOUT", "timed out waiting for the account", nil)
	case errors.Is(err, models.ErrStore):
		WriteError(w, http.StatusBadGateway, "STORE_ERROR", "store operation failed, retry with the same Idempotency-Key", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
