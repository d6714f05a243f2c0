package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
	"fintrack/internal/domain/transaction"
)

// memStore is an in-memory stand-in for the postgres schema. It enforces the
// (source, period) uniqueness, the term_length check, the obligation foreign
// key on transactions and the ON DELETE SET NULL link behaviour.
type memStore struct {
	mu           sync.Mutex
	sources      map[string]source.Source
	obligations  map[string]obligation.Obligation
	transactions map[string]transaction.Transaction

	// strictDuplicates makes CreateBatch fail on a duplicate period instead of skipping it
	strictDuplicates bool

	createTransactionErr error
	updatePaymentErr     error

	txCalls int
}

func newMemStore() *memStore {
	return &memStore{
		sources:      map[string]source.Source{},
		obligations:  map[string]obligation.Obligation{},
		transactions: map[string]transaction.Transaction{},
	}
}

func (m *memStore) repos() Repos {
	return Repos{
		Sources:      memSources{m},
		Obligations:  memObligations{m},
		Transactions: memTransactions{m},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.mu.Lock()
	m.txCalls++
	sources := make(map[string]source.Source, len(m.sources))
	for k, v := range m.sources {
		sources[k] = v
	}
	obligations := make(map[string]obligation.Obligation, len(m.obligations))
	for k, v := range m.obligations {
		obligations[k] = v
	}
	transactions := make(map[string]transaction.Transaction, len(m.transactions))
	for k, v := range m.transactions {
		transactions[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx, m.repos()); err != nil {
		m.mu.Lock()
		m.sources, m.obligations, m.transactions = sources, obligations, transactions
		m.mu.Unlock()
		return err
	}
	return nil
}

// setNullLocked clears links to the given obligations. Caller holds mu.
func (m *memStore) setNullLocked(ids map[string]bool) int64 {
	var n int64
	for id, t := range m.transactions {
		if t.ObligationID != nil && ids[*t.ObligationID] {
			t.ObligationID = nil
			m.transactions[id] = t
			n++
		}
	}
	return n
}

func (m *memStore) storedObligation(id string) obligation.Obligation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.obligations[id]
}

func (m *memStore) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

type memSources struct{ m *memStore }

func (r memSources) Create(ctx context.Context, params source.CreateParams) (*source.Source, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sources[params.ID]; ok {
		return nil, fmt.Errorf("duplicate source id %s", params.ID)
	}
	if params.TermLength != nil && *params.TermLength <= 0 {
		return nil, errors.New("term_length check constraint violation")
	}
	now := time.Now()
	src := source.Source{
		ID:             params.ID,
		Name:           params.Name,
		Kind:           params.Kind,
		StartPeriod:    params.StartPeriod,
		TermLength:     params.TermLength,
		ExpectedAmount: params.ExpectedAmount,
		AccountID:      params.AccountID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.m.sources[src.ID] = src
	return &src, nil
}

func (r memSources) GetByID(ctx context.Context, id string) (*source.Source, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	src, ok := r.m.sources[id]
	if !ok {
		return nil, nil
	}
	return &src, nil
}

func (r memSources) List(ctx context.Context, limit, offset int) ([]*source.Source, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ids := make([]string, 0, len(r.m.sources))
	for id := range r.m.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*source.Source
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		src := r.m.sources[ids[i]]
		out = append(out, &src)
	}
	return out, nil
}

func (r memSources) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sources[id]; !ok {
		return source.ErrSourceNotFound
	}
	delete(r.m.sources, id)
	cascaded := map[string]bool{}
	for obID, ob := range r.m.obligations {
		if ob.SourceID == id {
			cascaded[obID] = true
			delete(r.m.obligations, obID)
		}
	}
	r.m.setNullLocked(cascaded)
	return nil
}

type memObligations struct{ m *memStore }

func (r memObligations) CreateBatch(ctx context.Context, params []obligation.CreateParams) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	taken := map[string]bool{}
	for _, ob := range r.m.obligations {
		taken[ob.SourceID+"/"+ob.Period.String()] = true
	}
	var fresh []obligation.CreateParams
	for _, p := range params {
		if _, ok := r.m.sources[p.SourceID]; !ok {
			return 0, fmt.Errorf("source %s does not exist", p.SourceID)
		}
		key := p.SourceID + "/" + p.Period.String()
		if taken[key] {
			if r.m.strictDuplicates {
				return 0, obligation.ErrDuplicateObligation
			}
			continue
		}
		taken[key] = true
		fresh = append(fresh, p)
	}

	now := time.Now()
	for _, p := range fresh {
		r.m.obligations[p.ID] = obligation.Obligation{
			ID:             p.ID,
			SourceID:       p.SourceID,
			SourceKind:     p.SourceKind,
			Period:         p.Period,
			ExpectedAmount: p.ExpectedAmount,
			Status:         obligation.StatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}
	return len(fresh), nil
}

func (r memObligations) GetByID(ctx context.Context, id string) (*obligation.Obligation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ob, ok := r.m.obligations[id]
	if !ok {
		return nil, nil
	}
	return &ob, nil
}

func (r memObligations) GetByIDForUpdate(ctx context.Context, id string) (*obligation.Obligation, error) {
	return r.GetByID(ctx, id)
}

func (r memObligations) GetBySourceAndPeriod(ctx context.Context, sourceID string, p period.Period) (*obligation.Obligation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, ob := range r.m.obligations {
		if ob.SourceID == sourceID && ob.Period == p {
			return &ob, nil
		}
	}
	return nil, nil
}

func (r memObligations) ListBySourceID(ctx context.Context, sourceID string) ([]*obligation.Obligation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*obligation.Obligation
	for _, ob := range r.m.obligations {
		if ob.SourceID == sourceID {
			ob := ob
			out = append(out, &ob)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

func (r memObligations) UpdatePayment(ctx context.Context, id string, update obligation.PaymentUpdate) (*obligation.Obligation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.updatePaymentErr != nil {
		return nil, r.m.updatePaymentErr
	}
	ob, ok := r.m.obligations[id]
	if !ok {
		return nil, obligation.ErrObligationNotFound
	}
	ob.AmountPaid = decimal.NewNullDecimal(update.AmountPaid)
	ob.DatePaid = update.DatePaid
	ob.AccountID = update.AccountID
	ob.ReceiptRef = update.ReceiptRef
	ob.Status = update.Status
	ob.UpdatedAt = time.Now()
	r.m.obligations[id] = ob
	return &ob, nil
}

func (r memObligations) DeleteBySourceID(ctx context.Context, sourceID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	deleted := map[string]bool{}
	for id, ob := range r.m.obligations {
		if ob.SourceID == sourceID {
			deleted[id] = true
			delete(r.m.obligations, id)
		}
	}
	r.m.setNullLocked(deleted)
	return int64(len(deleted)), nil
}

type memTransactions struct{ m *memStore }

func (r memTransactions) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.createTransactionErr != nil {
		return nil, r.m.createTransactionErr
	}
	if _, ok := r.m.transactions[params.ID]; ok {
		return nil, fmt.Errorf("duplicate transaction id %s", params.ID)
	}
	if params.ObligationID != nil {
		if _, ok := r.m.obligations[*params.ObligationID]; !ok {
			return nil, errors.New("obligation foreign key violation")
		}
	}
	now := time.Now()
	t := transaction.Transaction{
		ID:           params.ID,
		Name:         params.Name,
		Date:         params.Date,
		Amount:       params.Amount,
		AccountID:    params.AccountID,
		ObligationID: params.ObligationID,
		Notes:        params.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.m.transactions[t.ID] = t
	return &t, nil
}

func (r memTransactions) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.transactions[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r memTransactions) List(ctx context.Context, f transaction.Filter) ([]*transaction.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*transaction.Transaction
	for _, t := range r.m.transactions {
		if f.AccountID != "" && (t.AccountID == nil || *t.AccountID != f.AccountID) {
			continue
		}
		if f.ObligationID != "" && !t.LinkedTo(f.ObligationID) {
			continue
		}
		if f.SourceID != "" {
			if !t.IsLinked() || r.m.obligations[*t.ObligationID].SourceID != f.SourceID {
				continue
			}
		}
		if f.UnlinkedOnly && t.IsLinked() {
			continue
		}
		if f.NameContains != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.NameContains)) {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !t.Date.Before(f.To) {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memTransactions) ListByObligationIDs(ctx context.Context, ids []string) ([]*transaction.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*transaction.Transaction
	for _, t := range r.m.transactions {
		if t.IsLinked() && want[*t.ObligationID] {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r memTransactions) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.transactions[id]; !ok {
		return transaction.ErrTransactionNotFound
	}
	delete(r.m.transactions, id)
	return nil
}

func (r memTransactions) ClearObligationLinks(ctx context.Context, ids []string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.m.setNullLocked(want), nil
}
