package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/payment"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
	"fintrack/internal/domain/transaction"
)

const dateLayout = "2006-01-02"

// ErrorResponse is written for errors the client may retry.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeServiceError maps engine errors to HTTP statuses. action completes
// "Failed to ..." in the 500 message.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, payment.ErrPaymentNotRecorded):
		log.Printf("Error trying to %s: %v", action, err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Failed to record payment", Retryable: true})
	case errors.Is(err, source.ErrSourceNotFound):
		http.Error(w, "Source not found", http.StatusNotFound)
	case errors.Is(err, obligation.ErrObligationNotFound):
		http.Error(w, "Payment schedule not found", http.StatusNotFound)
	case errors.Is(err, transaction.ErrTransactionNotFound):
		http.Error(w, "Transaction not found", http.StatusNotFound)
	case errors.Is(err, obligation.ErrGenerationValidation):
		http.Error(w, errorMessage(err), http.StatusUnprocessableEntity)
	case errors.Is(err, source.ErrInvalidInput),
		errors.Is(err, source.ErrInvalidKind),
		errors.Is(err, transaction.ErrInvalidInput),
		errors.Is(err, period.ErrInvalidPeriod):
		http.Error(w, errorMessage(err), http.StatusBadRequest)
	default:
		log.Printf("Error trying to %s: %v", action, err)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

// errorMessage flattens joined errors onto one line.
func errorMessage(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}

// parseDate parses an optional YYYY-MM-DD value. Empty yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func parsePage(r *http.Request) (limit, offset int) {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
