package payment

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/source"
	"fintrack/internal/domain/transaction"
)

// SourceDeletion reports what deleting a source touched.
type SourceDeletion struct {
	ObligationsDeleted   int64 `json:"obligationsDeleted"`
	TransactionsUnlinked int64 `json:"transactionsUnlinked"`
}

// OnTransactionDeleted deletes a transaction and reverses its effect on the
// obligation it was linked to.
func (s *Service) OnTransactionDeleted(ctx context.Context, transactionID string) error {
	if s.tx != nil {
		return s.tx.WithinTx(ctx, func(ctx context.Context, r Repos) error {
			return s.deleteTransaction(ctx, r, transactionID, true)
		})
	}
	return s.deleteTransaction(ctx, s.repos, transactionID, false)
}

func (s *Service) deleteTransaction(ctx context.Context, r Repos, transactionID string, atomic bool) error {
	t, err := r.Transactions.GetByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	if t == nil {
		return transaction.ErrTransactionNotFound
	}

	if t.IsLinked() {
		err := reverseLink(ctx, r, t, atomic)
		switch {
		case err == nil:
			reversals.Add(ctx, 1)
		case atomic:
			return err
		default:
			log.Printf("Obligation %s not updated after removing transaction %s: %v", *t.ObligationID, t.ID, err)
			paymentsPartialFailure.Add(ctx, 1)
		}
	}

	if err := r.Transactions.Delete(ctx, t.ID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// reverseLink recomputes the obligation from the transactions that stay linked to it.
func reverseLink(ctx context.Context, r Repos, t *transaction.Transaction, lock bool) error {
	get := r.Obligations.GetByID
	if lock {
		get = r.Obligations.GetByIDForUpdate
	}
	ob, err := get(ctx, *t.ObligationID)
	if err != nil {
		return fmt.Errorf("failed to get obligation: %w", err)
	}
	if ob == nil {
		// Link points at nothing; the row is already gone.
		return nil
	}

	linked, err := r.Transactions.ListByObligationIDs(ctx, []string{ob.ID})
	if err != nil {
		return fmt.Errorf("failed to list linked transactions: %w", err)
	}
	remaining := make([]*transaction.Transaction, 0, len(linked))
	for _, other := range linked {
		if other.ID != t.ID {
			remaining = append(remaining, other)
		}
	}

	if _, err := r.Obligations.UpdatePayment(ctx, ob.ID, reversalUpdate(ob, remaining)); err != nil {
		return fmt.Errorf("failed to update obligation: %w", err)
	}
	return nil
}

func reversalUpdate(ob *obligation.Obligation, remaining []*transaction.Transaction) obligation.PaymentUpdate {
	amount := transaction.SumAmounts(remaining)
	if len(remaining) == 0 || amount.IsZero() {
		return obligation.PaymentUpdate{
			AmountPaid: decimal.Zero,
			Status:     obligation.StatusPending,
		}
	}

	latest := transaction.Latest(remaining)
	date := latest.Date
	return obligation.PaymentUpdate{
		AmountPaid: amount,
		DatePaid:   &date,
		AccountID:  latest.AccountID,
		ReceiptRef: ob.ReceiptRef,
		Status:     obligation.StatusFor(amount, ob.ExpectedAmount),
	}
}

// OnSourceDeleted removes a source and its schedule. Transactions that paid
// the schedule are kept and unlinked.
func (s *Service) OnSourceDeleted(ctx context.Context, sourceID string) (*SourceDeletion, error) {
	var result *SourceDeletion
	run := func(ctx context.Context, r Repos) error {
		var err error
		result, err = deleteSource(ctx, r, sourceID)
		return err
	}

	var err error
	if s.tx != nil {
		err = s.tx.WithinTx(ctx, run)
	} else {
		err = run(ctx, s.repos)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Deleted source %s: obligations=%d, transactions unlinked=%d",
		sourceID, result.ObligationsDeleted, result.TransactionsUnlinked)
	return result, nil
}

func deleteSource(ctx context.Context, r Repos, sourceID string) (*SourceDeletion, error) {
	src, err := r.Sources.GetByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	if src == nil {
		return nil, source.ErrSourceNotFound
	}

	obs, err := r.Obligations.ListBySourceID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	ids := make([]string, 0, len(obs))
	for _, ob := range obs {
		ids = append(ids, ob.ID)
	}

	result := &SourceDeletion{}
	if len(ids) > 0 {
		result.TransactionsUnlinked, err = r.Transactions.ClearObligationLinks(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to unlink transactions: %w", err)
		}
	}

	result.ObligationsDeleted, err = r.Obligations.DeleteBySourceID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete obligations: %w", err)
	}

	if err := r.Sources.Delete(ctx, sourceID); err != nil {
		return nil, fmt.Errorf("failed to delete source: %w", err)
	}
	return result, nil
}
