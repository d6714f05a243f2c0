package source

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/period"
)

// Kind discriminates the two recurring source shapes.
type Kind string

const (
	KindBill        Kind = "bill"
	KindInstallment Kind = "installment"
)

// Domain errors
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidKind    = errors.New("invalid source kind")
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindBill || k == KindInstallment
}

// Source is a recurring bill or a fixed-term installment that owes periodic payments.
type Source struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Kind           Kind            `json:"kind"`
	StartPeriod    *period.Period  `json:"startPeriod,omitempty"`
	TermLength     *int            `json:"termLength,omitempty"` // installments only
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
	AccountID      *string         `json:"accountId,omitempty"` // default settling account
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CreateParams contains parameters for creating a new source.
// StartPeriod and TermLength may be absent: the source is still created
// and obligation generation reports the problem separately.
type CreateParams struct {
	ID             string
	Name           string
	Kind           Kind
	StartPeriod    *period.Period
	TermLength     *int
	ExpectedAmount decimal.Decimal
	AccountID      *string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return errors.New("source ID is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.Join(ErrInvalidInput, errors.New("name is required"))
	}
	if !p.Kind.IsValid() {
		return ErrInvalidKind
	}
	if !p.ExpectedAmount.IsPositive() {
		return errors.Join(ErrInvalidInput, errors.New("expected amount must be positive"))
	}
	if p.TermLength != nil && *p.TermLength <= 0 {
		return errors.Join(ErrInvalidInput, errors.New("term length must be positive"))
	}
	return nil
}
