package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
	"fintrack/internal/domain/transaction"
)

// DefaultWorkerCount is the reconciliation worker pool size when none is configured
const DefaultWorkerCount = 4

// reconcilePageSize is how many sources ReconcileAll reads per query
const reconcilePageSize = 200

// resolvedSource is one source's schedule after resolution.
type resolvedSource struct {
	views     []ObligationView
	repaired  int
	repairErr error
}

// resolveSource resolves every obligation of src. With repair set, stored rows
// that disagree with their linked transactions are rewritten; repair failures
// are collected in repairErr and never fail the read.
func (s *Service) resolveSource(ctx context.Context, src *source.Source, repair bool) (*resolvedSource, error) {
	obs, err := s.repos.Obligations.ListBySourceID(ctx, src.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	out := &resolvedSource{views: make([]ObligationView, 0, len(obs))}
	if len(obs) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(obs))
	for _, ob := range obs {
		ids = append(ids, ob.ID)
	}
	linked, err := s.repos.Transactions.ListByObligationIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked transactions: %w", err)
	}
	byObligation := make(map[string][]*transaction.Transaction, len(obs))
	for _, t := range linked {
		byObligation[*t.ObligationID] = append(byObligation[*t.ObligationID], t)
	}

	var fuzzyCandidates map[string][]*transaction.Transaction
	if s.fuzzy {
		fuzzyCandidates, err = s.fuzzyCandidates(ctx, src, obs, byObligation)
		if err != nil {
			// Fuzzy matching is a fallback; resolve without it.
			log.Printf("Failed to load unlinked transactions for source %s: %v", src.ID, err)
			fuzzyCandidates = nil
		}
	}

	var repairErrs []error
	for _, ob := range obs {
		own := byObligation[ob.ID]
		legacy := fuzzyCandidates[ob.ID]
		candidates := make([]*transaction.Transaction, 0, len(own)+len(legacy))
		candidates = append(candidates, own...)
		candidates = append(candidates, legacy...)

		res := s.resolver.Resolve(obligation.Input{
			Obligation: ob,
			SourceName: src.Name,
			Candidates: candidates,
		})
		resolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("evidence", string(res.Evidence))))

		if repair {
			if update, ok := driftRepair(ob, res, own); ok {
				updated, err := s.repos.Obligations.UpdatePayment(ctx, ob.ID, update)
				if err != nil {
					log.Printf("Failed to repair obligation %s: %v", ob.ID, err)
					repairErrs = append(repairErrs, fmt.Errorf("obligation %s: %w", ob.ID, err))
				} else {
					log.Printf("Repaired obligation %s: amount_paid=%s, status=%s", ob.ID, update.AmountPaid, update.Status)
					reconcileRepairs.Add(ctx, 1)
					out.repaired++
					if updated != nil {
						ob = updated
					}
				}
			}
		}

		out.views = append(out.views, ObligationView{
			Obligation: ob,
			Label:      ob.Period.Label(),
			Resolution: res,
		})
	}

	out.repairErr = errors.Join(repairErrs...)
	return out, nil
}

// fuzzyCandidates loads every unlinked transaction that could be a legacy
// payment of src and assigns each to at most one obligation. Obligations
// already settled by a link or a stored amount never reach the fuzzy
// strategy and take no part in the assignment.
func (s *Service) fuzzyCandidates(
	ctx context.Context,
	src *source.Source,
	obs []*obligation.Obligation,
	linked map[string][]*transaction.Transaction,
) (map[string][]*transaction.Transaction, error) {
	open := make([]*obligation.Obligation, 0, len(obs))
	for _, ob := range obs {
		if len(linked[ob.ID]) == 0 && !ob.PaidAmount().IsPositive() {
			open = append(open, ob)
		}
	}
	if len(open) == 0 || len(strings.TrimSpace(src.Name)) < obligation.FuzzyMinNameLength {
		return nil, nil
	}

	filter := fuzzyWindowFilter(open, src.Name)
	var unlinked []*transaction.Transaction
	for {
		page, err := s.repos.Transactions.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		unlinked = append(unlinked, page...)
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += filter.Limit
	}

	return obligation.AssignFuzzyCandidates(open, src.Name, unlinked), nil
}

// fuzzyWindowFilter covers every date a fuzzy match could use for obs,
// which are ordered by period, and narrows the rows to the source's name.
func fuzzyWindowFilter(obs []*obligation.Obligation, sourceName string) transaction.Filter {
	first := obs[0].Period
	last := obs[len(obs)-1].Period
	return transaction.Filter{
		UnlinkedOnly: true,
		NameContains: strings.TrimSpace(sourceName),
		From:         period.Period{Year: first.Year - 1, Month: time.December}.Start(),
		To:           last.End().Add(obligation.FuzzyGraceWindow),
		Limit:        MaxListLimit,
	}
}

// driftRepair returns the update that brings a stored row in line with its
// linked transactions. Manual overrides and overdue rows are left alone.
func driftRepair(ob *obligation.Obligation, res obligation.Resolution, linked []*transaction.Transaction) (obligation.PaymentUpdate, bool) {
	switch res.Evidence {
	case obligation.EvidenceDirectLink:
		if ob.AmountPaid.Valid && ob.AmountPaid.Decimal.Equal(res.DisplayAmount) && ob.Status == res.Status {
			return obligation.PaymentUpdate{}, false
		}
		latest := transaction.Latest(linked)
		date := latest.Date
		return obligation.PaymentUpdate{
			AmountPaid: res.DisplayAmount,
			DatePaid:   &date,
			AccountID:  latest.AccountID,
			ReceiptRef: ob.ReceiptRef,
			Status:     res.Status,
		}, true
	case obligation.EvidenceNone:
		// A paid or partial row with nothing behind it is left over from a
		// reversal that never reached the obligation.
		if ob.Status != obligation.StatusPaid && ob.Status != obligation.StatusPartial {
			return obligation.PaymentUpdate{}, false
		}
		return obligation.PaymentUpdate{Status: obligation.StatusPending}, true
	}
	return obligation.PaymentUpdate{}, false
}

// ReconcileResult contains the results of a reconciliation pass
type ReconcileResult struct {
	SourcesChecked     int      `json:"sourcesChecked"`
	ObligationsChecked int      `json:"obligationsChecked"`
	Repaired           int      `json:"repaired"`
	Errors             []string `json:"errors"`
}

// Reconciler runs the read-time repair over whole sources on demand.
type Reconciler struct {
	service     *Service
	workerCount int
}

// NewReconciler creates a reconciler with the given worker pool size.
func NewReconciler(service *Service, workerCount int) *Reconciler {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	return &Reconciler{service: service, workerCount: workerCount}
}

type reconcileWorkerResult struct {
	obligations int
	repaired    int
	err         error
}

// ReconcileSource repairs one source's obligations.
func (r *Reconciler) ReconcileSource(ctx context.Context, sourceID string) (*ReconcileResult, error) {
	src, err := r.service.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	res := r.reconcile(ctx, src)
	result := &ReconcileResult{
		SourcesChecked:     1,
		ObligationsChecked: res.obligations,
		Repaired:           res.repaired,
		Errors:             []string{},
	}
	if res.err != nil {
		result.Errors = append(result.Errors, res.err.Error())
	}
	return result, nil
}

// ReconcileAll repairs every source using the worker pool.
func (r *Reconciler) ReconcileAll(ctx context.Context) (*ReconcileResult, error) {
	var sources []*source.Source
	for offset := 0; ; offset += reconcilePageSize {
		page, err := r.service.repos.Sources.List(ctx, reconcilePageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list sources: %w", err)
		}
		sources = append(sources, page...)
		if len(page) < reconcilePageSize {
			break
		}
	}

	result := &ReconcileResult{
		SourcesChecked: len(sources),
		Errors:         []string{},
	}
	if len(sources) == 0 {
		return result, nil
	}

	jobs := make(chan *source.Source, len(sources))
	results := make(chan reconcileWorkerResult, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < r.workerCount; i++ {
		wg.Add(1)
		go r.worker(ctx, jobs, results, &wg)
	}

	for _, src := range sources {
		jobs <- src
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.ObligationsChecked += res.obligations
		result.Repaired += res.repaired
		if res.err != nil {
			result.Errors = append(result.Errors, res.err.Error())
		}
	}

	log.Printf("Reconciliation completed: sources=%d, obligations=%d, repaired=%d, errors=%d",
		result.SourcesChecked, result.ObligationsChecked, result.Repaired, len(result.Errors))

	return result, nil
}

func (r *Reconciler) worker(
	ctx context.Context,
	jobs <-chan *source.Source,
	results chan<- reconcileWorkerResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for src := range jobs {
		select {
		case <-ctx.Done():
			results <- reconcileWorkerResult{err: fmt.Errorf("source %s: %w", src.ID, ctx.Err())}
		default:
			results <- r.reconcile(ctx, src)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context, src *source.Source) reconcileWorkerResult {
	resolved, err := r.service.resolveSource(ctx, src, true)
	if err != nil {
		return reconcileWorkerResult{err: fmt.Errorf("source %s: %w", src.ID, err)}
	}
	res := reconcileWorkerResult{obligations: len(resolved.views), repaired: resolved.repaired}
	if resolved.repairErr != nil {
		res.err = fmt.Errorf("source %s: %w", src.ID, resolved.repairErr)
	}
	return res
}
