package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
	"fintrack/internal/domain/transaction"
)

// PaymentDetails describes a payment made against an obligation.
// A zero Date means today; an empty Name becomes "<source> - <Mon YYYY>".
type PaymentDetails struct {
	Amount     decimal.Decimal
	Date       time.Time
	AccountID  *string
	ReceiptRef *string
	Name       string
	Notes      *string
}

func (d PaymentDetails) validate() error {
	if !d.Amount.IsPositive() {
		return errors.Join(transaction.ErrInvalidInput, errors.New("payment amount must be positive"))
	}
	return nil
}

// PayObligation records a payment transaction linked to the obligation and
// brings the obligation's payment columns up to date.
func (s *Service) PayObligation(ctx context.Context, obligationID string, details PaymentDetails) (*transaction.Transaction, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}
	if details.Date.IsZero() {
		details.Date = s.now()
	}

	if s.tx != nil {
		return s.payAtomic(ctx, obligationID, details)
	}
	return s.payTwoStep(ctx, obligationID, details)
}

// PayForPeriod records a payment for the source's obligation in period p.
func (s *Service) PayForPeriod(ctx context.Context, sourceID string, p period.Period, details PaymentDetails) (*transaction.Transaction, error) {
	ob, err := s.FindObligation(ctx, sourceID, p)
	if err != nil {
		return nil, err
	}
	return s.PayObligation(ctx, ob.ID, details)
}

// CreateUnlinkedTransaction records a transaction that settles no obligation.
func (s *Service) CreateUnlinkedTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	if params.ID == "" {
		params.ID = s.newID()
	}
	params.ObligationID = nil
	if err := params.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repos.Transactions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return t, nil
}

func (s *Service) payAtomic(ctx context.Context, obligationID string, details PaymentDetails) (*transaction.Transaction, error) {
	var created *transaction.Transaction

	err := s.tx.WithinTx(ctx, func(ctx context.Context, r Repos) error {
		ob, err := r.Obligations.GetByIDForUpdate(ctx, obligationID)
		if err != nil {
			return fmt.Errorf("failed to lock obligation: %w", err)
		}
		if ob == nil {
			return obligation.ErrObligationNotFound
		}

		params, err := s.paymentParams(ctx, r, ob, details)
		if err != nil {
			return err
		}
		created, err = r.Transactions.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		return applyPayment(ctx, r, ob, details)
	})
	if err != nil {
		if errors.Is(err, obligation.ErrObligationNotFound) {
			return nil, err
		}
		log.Printf("Payment for obligation %s rolled back: %v", obligationID, err)
		return nil, fmt.Errorf("%w: %w", ErrPaymentNotRecorded, err)
	}

	paymentsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", "atomic")))
	return created, nil
}

func (s *Service) payTwoStep(ctx context.Context, obligationID string, details PaymentDetails) (*transaction.Transaction, error) {
	ob, err := s.repos.Obligations.GetByID(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}
	if ob == nil {
		return nil, obligation.ErrObligationNotFound
	}

	params, err := s.paymentParams(ctx, s.repos, ob, details)
	if err != nil {
		return nil, err
	}
	created, err := s.repos.Transactions.Create(ctx, params)
	if err != nil {
		log.Printf("Failed to create payment transaction for obligation %s: %v", ob.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrPaymentNotRecorded, err)
	}
	paymentsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", "two_step")))

	// The transaction is the ground truth from here on; a stale obligation
	// row is repaired on the next read.
	if err := applyPayment(ctx, s.repos, ob, details); err != nil {
		log.Printf("Payment transaction %s recorded but obligation %s not updated: %v", created.ID, ob.ID, err)
		paymentsPartialFailure.Add(ctx, 1)
	}

	return created, nil
}

func (s *Service) paymentParams(ctx context.Context, r Repos, ob *obligation.Obligation, details PaymentDetails) (transaction.CreateParams, error) {
	name := strings.TrimSpace(details.Name)
	if name == "" {
		src, err := r.Sources.GetByID(ctx, ob.SourceID)
		if err != nil {
			return transaction.CreateParams{}, fmt.Errorf("failed to get source: %w", err)
		}
		name = defaultPaymentName(src, ob)
	}

	obligationID := ob.ID
	params := transaction.CreateParams{
		ID:           s.newID(),
		Name:         name,
		Date:         details.Date,
		Amount:       details.Amount,
		AccountID:    details.AccountID,
		ObligationID: &obligationID,
		Notes:        details.Notes,
	}
	if err := params.Validate(); err != nil {
		return transaction.CreateParams{}, err
	}
	return params, nil
}

func defaultPaymentName(src *source.Source, ob *obligation.Obligation) string {
	label := ob.Period.Label()
	if src == nil {
		return "Payment - " + label
	}
	return src.Name + " - " + label
}

// applyPayment sets amount_paid to the sum of every transaction linked to ob,
// which already includes the one just created.
func applyPayment(ctx context.Context, r Repos, ob *obligation.Obligation, details PaymentDetails) error {
	linked, err := r.Transactions.ListByObligationIDs(ctx, []string{ob.ID})
	if err != nil {
		return fmt.Errorf("failed to list linked transactions: %w", err)
	}

	amount := transaction.SumAmounts(linked)
	receipt := details.ReceiptRef
	if receipt == nil {
		receipt = ob.ReceiptRef
	}
	date := details.Date
	update := obligation.PaymentUpdate{
		AmountPaid: amount,
		DatePaid:   &date,
		AccountID:  details.AccountID,
		ReceiptRef: receipt,
		Status:     obligation.StatusFor(amount, ob.ExpectedAmount),
	}

	if _, err := r.Obligations.UpdatePayment(ctx, ob.ID, update); err != nil {
		return fmt.Errorf("failed to update obligation: %w", err)
	}
	return nil
}
