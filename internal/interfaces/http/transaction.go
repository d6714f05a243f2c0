package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/transaction"
)

// TransactionService is the part of the engine the transaction routes need.
type TransactionService interface {
	ListTransactions(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error)
	CreateUnlinkedTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*transaction.Transaction, error)
	OnTransactionDeleted(ctx context.Context, transactionID string) error
}

type TransactionHandler struct {
	service TransactionService
}

func NewTransactionHandler(service TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

type CreateTransactionRequest struct {
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate string          `json:"transactionDate"`
	AccountID       *string         `json:"accountId,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

// HandleTransactions lists transactions (GET) or records an unlinked one (POST).
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListTransactions(w, r)
	case http.MethodPost:
		h.handleCreateTransaction(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleListTransactions accepts accountId, obligationId, sourceId, from and
// to (inclusive, YYYY-MM-DD), unlinked, limit and offset.
func (h *TransactionHandler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := transaction.Filter{
		AccountID:    q.Get("accountId"),
		ObligationID: q.Get("obligationId"),
		SourceID:     q.Get("sourceId"),
	}
	filter.Limit, filter.Offset = parsePage(r)

	from, err := parseDate(q.Get("from"))
	if err != nil {
		http.Error(w, "Invalid from format (use YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	filter.From = from

	to, err := parseDate(q.Get("to"))
	if err != nil {
		http.Error(w, "Invalid to format (use YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	if !to.IsZero() {
		filter.To = to.AddDate(0, 0, 1)
	}

	if unlinked := q.Get("unlinked"); unlinked != "" {
		filter.UnlinkedOnly, err = strconv.ParseBool(unlinked)
		if err != nil {
			http.Error(w, "Invalid unlinked value", http.StatusBadRequest)
			return
		}
	}

	transactions, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "list transactions")
		return
	}
	if transactions == nil {
		transactions = []*transaction.Transaction{}
	}

	writeJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create transaction request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.TransactionDate == "" {
		http.Error(w, "name and transactionDate are required", http.StatusBadRequest)
		return
	}

	date, err := parseDate(req.TransactionDate)
	if err != nil {
		http.Error(w, "Invalid transactionDate format (use YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	t, err := h.service.CreateUnlinkedTransaction(r.Context(), transaction.CreateParams{
		Name:      req.Name,
		Date:      date,
		Amount:    req.Amount,
		AccountID: req.AccountID,
		Notes:     req.Notes,
	})
	if err != nil {
		writeServiceError(w, err, "create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// HandleTransactionByID handles GET and DELETE on a single transaction.
// Deleting a linked transaction reverses its effect on the obligation.
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	transactionID := r.PathValue("id")
	if transactionID == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := h.service.GetTransaction(r.Context(), transactionID)
		if err != nil {
			writeServiceError(w, err, "get transaction")
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		if err := h.service.OnTransactionDeleted(r.Context(), transactionID); err != nil {
			writeServiceError(w, err, "delete transaction")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
