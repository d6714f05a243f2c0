package payment

import (
	"context"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
	"fintrack/internal/domain/transaction"
)

type MockSourceRepo struct {
	CreateFunc  func(ctx context.Context, params source.CreateParams) (*source.Source, error)
	GetByIDFunc func(ctx context.Context, id string) (*source.Source, error)
	ListFunc    func(ctx context.Context, limit, offset int) ([]*source.Source, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockSourceRepo) Create(ctx context.Context, params source.CreateParams) (*source.Source, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}
func (m *MockSourceRepo) GetByID(ctx context.Context, id string) (*source.Source, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}
func (m *MockSourceRepo) List(ctx context.Context, limit, offset int) ([]*source.Source, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}
func (m *MockSourceRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type MockObligationRepo struct {
	CreateBatchFunc          func(ctx context.Context, params []obligation.CreateParams) (int, error)
	GetByIDFunc              func(ctx context.Context, id string) (*obligation.Obligation, error)
	GetByIDForUpdateFunc     func(ctx context.Context, id string) (*obligation.Obligation, error)
	GetBySourceAndPeriodFunc func(ctx context.Context, sourceID string, p period.Period) (*obligation.Obligation, error)
	ListBySourceIDFunc       func(ctx context.Context, sourceID string) ([]*obligation.Obligation, error)
	UpdatePaymentFunc        func(ctx context.Context, id string, update obligation.PaymentUpdate) (*obligation.Obligation, error)
	DeleteBySourceIDFunc     func(ctx context.Context, sourceID string) (int64, error)
}

func (m *MockObligationRepo) CreateBatch(ctx context.Context, params []obligation.CreateParams) (int, error) {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, params)
	}
	return len(params), nil
}
func (m *MockObligationRepo) GetByID(ctx context.Context, id string) (*obligation.Obligation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}
func (m *MockObligationRepo) GetByIDForUpdate(ctx context.Context, id string) (*obligation.Obligation, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return nil, nil
}
func (m *MockObligationRepo) GetBySourceAndPeriod(ctx context.Context, sourceID string, p period.Period) (*obligation.Obligation, error) {
	if m.GetBySourceAndPeriodFunc != nil {
		return m.GetBySourceAndPeriodFunc(ctx, sourceID, p)
	}
	return nil, nil
}
func (m *MockObligationRepo) ListBySourceID(ctx context.Context, sourceID string) ([]*obligation.Obligation, error) {
	if m.ListBySourceIDFunc != nil {
		return m.ListBySourceIDFunc(ctx, sourceID)
	}
	return nil, nil
}
func (m *MockObligationRepo) UpdatePayment(ctx context.Context, id string, update obligation.PaymentUpdate) (*obligation.Obligation, error) {
	if m.UpdatePaymentFunc != nil {
		return m.UpdatePaymentFunc(ctx, id, update)
	}
	return nil, nil
}
func (m *MockObligationRepo) DeleteBySourceID(ctx context.Context, sourceID string) (int64, error) {
	if m.DeleteBySourceIDFunc != nil {
		return m.DeleteBySourceIDFunc(ctx, sourceID)
	}
	return 0, nil
}

type MockTransactionRepo struct {
	CreateFunc               func(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	GetByIDFunc              func(ctx context.Context, id string) (*transaction.Transaction, error)
	ListFunc                 func(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error)
	ListByObligationIDsFunc  func(ctx context.Context, ids []string) ([]*transaction.Transaction, error)
	DeleteFunc               func(ctx context.Context, id string) error
	ClearObligationLinksFunc func(ctx context.Context, ids []string) (int64, error)
}

func (m *MockTransactionRepo) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}
func (m *MockTransactionRepo) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}
func (m *MockTransactionRepo) List(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}
func (m *MockTransactionRepo) ListByObligationIDs(ctx context.Context, ids []string) ([]*transaction.Transaction, error) {
	if m.ListByObligationIDsFunc != nil {
		return m.ListByObligationIDsFunc(ctx, ids)
	}
	return nil, nil
}
func (m *MockTransactionRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
func (m *MockTransactionRepo) ClearObligationLinks(ctx context.Context, ids []string) (int64, error) {
	if m.ClearObligationLinksFunc != nil {
		return m.ClearObligationLinksFunc(ctx, ids)
	}
	return 0, nil
}
