package http

import (
	"context"

	"fintrack/internal/domain/payment"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
	"fintrack/internal/domain/transaction"
)

// MockEngine implements SourceService, PaymentService and TransactionService.
type MockEngine struct {
	CreateSourceFunc              func(ctx context.Context, params source.CreateParams) (*payment.CreateSourceResult, error)
	GetSourceFunc                 func(ctx context.Context, id string) (*source.Source, error)
	ListSourcesFunc               func(ctx context.Context, limit, offset int) ([]*source.Source, error)
	OnSourceDeletedFunc           func(ctx context.Context, sourceID string) (*payment.SourceDeletion, error)
	ListObligationsFunc           func(ctx context.Context, sourceID string) ([]payment.ObligationView, error)
	GenerateObligationsFunc       func(ctx context.Context, sourceID string) (int, error)
	PayObligationFunc             func(ctx context.Context, obligationID string, details payment.PaymentDetails) (*transaction.Transaction, error)
	PayForPeriodFunc              func(ctx context.Context, sourceID string, p period.Period, details payment.PaymentDetails) (*transaction.Transaction, error)
	ListTransactionsFunc          func(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error)
	CreateUnlinkedTransactionFunc func(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	GetTransactionFunc            func(ctx context.Context, id string) (*transaction.Transaction, error)
	OnTransactionDeletedFunc      func(ctx context.Context, transactionID string) error
}

func (m *MockEngine) CreateSource(ctx context.Context, params source.CreateParams) (*payment.CreateSourceResult, error) {
	if m.CreateSourceFunc != nil {
		return m.CreateSourceFunc(ctx, params)
	}
	return &payment.CreateSourceResult{Source: &source.Source{ID: "src-1"}}, nil
}

func (m *MockEngine) GetSource(ctx context.Context, id string) (*source.Source, error) {
	if m.GetSourceFunc != nil {
		return m.GetSourceFunc(ctx, id)
	}
	return &source.Source{ID: id}, nil
}

func (m *MockEngine) ListSources(ctx context.Context, limit, offset int) ([]*source.Source, error) {
	if m.ListSourcesFunc != nil {
		return m.ListSourcesFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockEngine) OnSourceDeleted(ctx context.Context, sourceID string) (*payment.SourceDeletion, error) {
	if m.OnSourceDeletedFunc != nil {
		return m.OnSourceDeletedFunc(ctx, sourceID)
	}
	return &payment.SourceDeletion{}, nil
}

func (m *MockEngine) ListObligations(ctx context.Context, sourceID string) ([]payment.ObligationView, error) {
	if m.ListObligationsFunc != nil {
		return m.ListObligationsFunc(ctx, sourceID)
	}
	return nil, nil
}

func (m *MockEngine) GenerateObligations(ctx context.Context, sourceID string) (int, error) {
	if m.GenerateObligationsFunc != nil {
		return m.GenerateObligationsFunc(ctx, sourceID)
	}
	return 0, nil
}

func (m *MockEngine) PayObligation(ctx context.Context, obligationID string, details payment.PaymentDetails) (*transaction.Transaction, error) {
	if m.PayObligationFunc != nil {
		return m.PayObligationFunc(ctx, obligationID, details)
	}
	return &transaction.Transaction{ID: "tx-1"}, nil
}

func (m *MockEngine) PayForPeriod(ctx context.Context, sourceID string, p period.Period, details payment.PaymentDetails) (*transaction.Transaction, error) {
	if m.PayForPeriodFunc != nil {
		return m.PayForPeriodFunc(ctx, sourceID, p, details)
	}
	return &transaction.Transaction{ID: "tx-1"}, nil
}

func (m *MockEngine) ListTransactions(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockEngine) CreateUnlinkedTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	if m.CreateUnlinkedTransactionFunc != nil {
		return m.CreateUnlinkedTransactionFunc(ctx, params)
	}
	return &transaction.Transaction{ID: "tx-1", Name: params.Name}, nil
}

func (m *MockEngine) GetTransaction(ctx context.Context, id string) (*transaction.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	return &transaction.Transaction{ID: id}, nil
}

func (m *MockEngine) OnTransactionDeleted(ctx context.Context, transactionID string) error {
	if m.OnTransactionDeletedFunc != nil {
		return m.OnTransactionDeletedFunc(ctx, transactionID)
	}
	return nil
}
