package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rl1809/checkout-choreography/internal/core/service"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error           string   `json:"error"`
	Message         string   `json:"message"`
	OutOfStockItems []string `json:"outOfStockItems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: message})
}

// writeError maps a service error onto a status code and error body.
// Unexpected errors are logged and hidden behind internal_error.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var outOfStock *service.OutOfStockError
	var insufficient *service.InsufficientStockError

	switch {
	case errors.As(err, &outOfStock):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:           "out_of_stock",
			Message:         "one or more items are out of stock",
			OutOfStockItems: outOfStock.Items,
		})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:           "out_of_stock",
			Message:         insufficient.Error(),
			OutOfStockItems: []string{insufficient.ItemNo},
		})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidOrder), errors.Is(err, service.ErrInvalidDocument):
		writeBadRequest(w, err.Error())
	case errors.Is(err, service.ErrServiceUnavailable), errors.Is(err, service.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "stock_unavailable",
			Message: "stock service is unavailable, please retry",
		})
	case errors.Is(err, service.ErrPublishFailed):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "publish_failed",
			Message: "checkout could not be submitted, please retry",
		})
	case errors.Is(err, service.ErrCheckoutInProgress):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "checkout_in_progress", Message: err.Error()})
	case errors.Is(err, service.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "duplicate_request", Message: err.Error()})
	default:
		log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "internal error"})
	}
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
