package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/payment"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/transaction"
)

// PaymentService records payments against obligations.
type PaymentService interface {
	PayObligation(ctx context.Context, obligationID string, details payment.PaymentDetails) (*transaction.Transaction, error)
	PayForPeriod(ctx context.Context, sourceID string, p period.Period, details payment.PaymentDetails) (*transaction.Transaction, error)
}

type PaymentHandler struct {
	service PaymentService
}

func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type PaymentRequest struct {
	Period     string          `json:"period,omitempty"` // YYYY-MM, source route only
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	AccountID  *string         `json:"accountId,omitempty"`
	ReceiptRef *string         `json:"receiptRef,omitempty"`
	Name       string          `json:"name,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
}

// HandlePayObligation pays an obligation addressed by ID.
func (h *PaymentHandler) HandlePayObligation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	obligationID := r.PathValue("id")
	if obligationID == "" {
		http.Error(w, "Obligation ID is required", http.StatusBadRequest)
		return
	}

	req, details, ok := decodePayment(w, r)
	if !ok {
		return
	}
	if req.Period != "" {
		http.Error(w, "period is only accepted on the source payment route", http.StatusBadRequest)
		return
	}

	t, err := h.service.PayObligation(r.Context(), obligationID, details)
	if err != nil {
		writeServiceError(w, err, "record payment")
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// HandlePayForPeriod pays the source's obligation for the requested period.
func (h *PaymentHandler) HandlePayForPeriod(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sourceID := r.PathValue("id")
	if sourceID == "" {
		http.Error(w, "Source ID is required", http.StatusBadRequest)
		return
	}

	req, details, ok := decodePayment(w, r)
	if !ok {
		return
	}
	p, err := period.Parse(req.Period)
	if err != nil {
		http.Error(w, "Invalid period format (use YYYY-MM)", http.StatusBadRequest)
		return
	}

	t, err := h.service.PayForPeriod(r.Context(), sourceID, p, details)
	if err != nil {
		writeServiceError(w, err, "record payment")
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

func decodePayment(w http.ResponseWriter, r *http.Request) (PaymentRequest, payment.PaymentDetails, bool) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding payment request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return req, payment.PaymentDetails{}, false
	}

	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, "Invalid date format (use YYYY-MM-DD)", http.StatusBadRequest)
		return req, payment.PaymentDetails{}, false
	}

	return req, payment.PaymentDetails{
		Amount:     req.Amount,
		Date:       date,
		AccountID:  req.AccountID,
		ReceiptRef: req.ReceiptRef,
		Name:       req.Name,
		Notes:      req.Notes,
	}, true
}
