package obligation

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
)

// Status of an obligation as displayed.
type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

var statuses = map[Status]struct{}{
	StatusPending: {},
	StatusPartial: {},
	StatusPaid:    {},
	StatusOverdue: {},
}

// Domain errors
var (
	ErrObligationNotFound  = errors.New("payment schedule not found")
	ErrDuplicateObligation = errors.New("obligation already exists for source and period")
	ErrInvalidStatus       = errors.New("invalid obligation status")

	// ErrGenerationValidation is the parent of every generator input error.
	ErrGenerationValidation = errors.New("cannot generate payment schedule")
	ErrMissingStartPeriod   = fmt.Errorf("%w: start period is required", ErrGenerationValidation)
	ErrMissingTermLength    = fmt.Errorf("%w: term length is required for installments", ErrGenerationValidation)
	ErrInvalidTermLength    = fmt.Errorf("%w: term length out of range", ErrGenerationValidation)
)

// IsValidStatus checks if the provided status is valid
func IsValidStatus(s Status) bool {
	_, ok := statuses[s]
	return ok
}

// Obligation is one period's expected payment for a source.
// AmountPaid and Status are derived display values; linked transactions are
// the ground truth.
type Obligation struct {
	ID             string              `json:"id"`
	SourceID       string              `json:"sourceId"`
	SourceKind     source.Kind         `json:"sourceKind"`
	Period         period.Period       `json:"period"`
	ExpectedAmount decimal.Decimal     `json:"expectedAmount"`
	AmountPaid     decimal.NullDecimal `json:"amountPaid"`
	DatePaid       *time.Time          `json:"datePaid,omitempty"`
	AccountID      *string             `json:"accountId,omitempty"`
	ReceiptRef     *string             `json:"receiptRef,omitempty"`
	Status         Status              `json:"status"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// PaidAmount returns AmountPaid, treating NULL as zero.
func (o *Obligation) PaidAmount() decimal.Decimal {
	if !o.AmountPaid.Valid {
		return decimal.Zero
	}
	return o.AmountPaid.Decimal
}

// CreateParams describes one obligation row to insert.
type CreateParams struct {
	ID             string
	SourceID       string
	SourceKind     source.Kind
	Period         period.Period
	ExpectedAmount decimal.Decimal
}

// PaymentUpdate overwrites the payment columns of an obligation.
// Nil pointers clear the corresponding column.
type PaymentUpdate struct {
	AmountPaid decimal.Decimal
	DatePaid   *time.Time
	AccountID  *string
	ReceiptRef *string
	Status     Status
}

// StatusFor applies the paid/partial boundary to a resolved amount.
func StatusFor(amount, expected decimal.Decimal) Status {
	switch {
	case !amount.IsPositive():
		return StatusPending
	case amount.GreaterThanOrEqual(expected):
		return StatusPaid
	default:
		return StatusPartial
	}
}
