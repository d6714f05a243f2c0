package transaction

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// Transaction is a ledger entry. ObligationID links it to the obligation it settles.
type Transaction struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	AccountID    *string         `json:"accountId,omitempty"`
	ObligationID *string         `json:"obligationId,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// IsLinked reports whether the transaction settles an obligation.
func (t *Transaction) IsLinked() bool {
	return t.ObligationID != nil && *t.ObligationID != ""
}

// LinkedTo reports whether the transaction settles the given obligation.
func (t *Transaction) LinkedTo(obligationID string) bool {
	return t.IsLinked() && *t.ObligationID == obligationID
}

type CreateParams struct {
	ID           string
	Name         string
	Date         time.Time
	Amount       decimal.Decimal
	AccountID    *string
	ObligationID *string
	Notes        *string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return errors.New("transaction ID is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.Join(ErrInvalidInput, errors.New("name is required"))
	}
	if p.Date.IsZero() {
		return errors.Join(ErrInvalidInput, errors.New("date is required"))
	}
	if p.Amount.IsZero() {
		return errors.Join(ErrInvalidInput, errors.New("amount must not be zero"))
	}
	return nil
}

// Filter narrows listTransactions. Zero values mean "no constraint".
type Filter struct {
	AccountID    string
	ObligationID string
	SourceID     string // transactions linked to any obligation of this source
	NameContains string // case-insensitive substring of the name
	From         time.Time
	To           time.Time // exclusive
	UnlinkedOnly bool
	Limit        int
	Offset       int
}

// SumAmounts adds up the transaction amounts.
func SumAmounts(txns []*Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// Latest returns the transaction with the most recent date, or nil.
func Latest(txns []*Transaction) *Transaction {
	var latest *Transaction
	for _, t := range txns {
		if latest == nil || t.Date.After(latest.Date) {
			latest = t
		}
	}
	return latest
}
