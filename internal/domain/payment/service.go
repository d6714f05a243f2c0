package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/period"
	"fintrack/internal/domain/source"
	"fintrack/internal/domain/transaction"
)

const (
	// DefaultListLimit applies when a transaction listing does not set one
	DefaultListLimit = 100
	// MaxListLimit caps a single transaction listing
	MaxListLimit = 1000
)

// ErrPaymentNotRecorded means no payment was persisted. The caller may retry.
var ErrPaymentNotRecorded = errors.New("failed to record payment")

// Repos groups the stores the engine writes to. Inside a database transaction
// every repository is bound to that transaction.
type Repos struct {
	Sources      source.Repository
	Obligations  obligation.Repository
	Transactions transaction.Repository
}

// Transactor runs fn inside one database transaction. A non-nil error from fn
// rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}

// Options tunes the engine. Zero values disable the optional behaviour.
type Options struct {
	FuzzyMatch      bool
	ReconcileOnRead bool
	NewID           func() string
	Now             func() time.Time
}

// Service owns source schedules, payments and their reversal.
// With a Transactor, payments and reversals are atomic. Without one they run
// as two separate writes and an obligation that misses its update is healed
// the next time it is read.
type Service struct {
	repos           Repos
	tx              Transactor
	generator       *obligation.Generator
	resolver        *obligation.Resolver
	fuzzy           bool
	reconcileOnRead bool
	newID           func() string
	now             func() time.Time
}

// NewService creates the engine service. tx may be nil.
func NewService(repos Repos, tx Transactor, opts Options) *Service {
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repos:           repos,
		tx:              tx,
		generator:       obligation.NewGeneratorWithIDs(newID),
		resolver:        obligation.NewResolver(opts.FuzzyMatch),
		fuzzy:           opts.FuzzyMatch,
		reconcileOnRead: opts.ReconcileOnRead,
		newID:           newID,
		now:             now,
	}
}

// Atomic reports whether payments and reversals run in one database transaction.
func (s *Service) Atomic() bool {
	return s.tx != nil
}

// CreateSourceResult is returned by CreateSource. GenerationErr is set when
// the source was stored but its schedule could not be generated.
type CreateSourceResult struct {
	Source        *source.Source
	Obligations   []*obligation.Obligation
	Inserted      int
	GenerationErr error
}

// ObligationView is an obligation together with its resolved display status.
type ObligationView struct {
	Obligation *obligation.Obligation `json:"obligation"`
	Label      string                 `json:"label"`
	Resolution obligation.Resolution  `json:"resolution"`
}

// CreateSource stores a new source and generates its initial schedule.
func (s *Service) CreateSource(ctx context.Context, params source.CreateParams) (*CreateSourceResult, error) {
	if params.ID == "" {
		params.ID = s.newID()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	src, err := s.repos.Sources.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	result := &CreateSourceResult{Source: src}

	inserted, err := s.generate(ctx, s.repos, src)
	if err != nil {
		if errors.Is(err, obligation.ErrGenerationValidation) {
			log.Printf("Source %s created without schedule: %v", src.ID, err)
			result.GenerationErr = err
			return result, nil
		}
		return result, err
	}
	result.Inserted = inserted

	obs, err := s.repos.Obligations.ListBySourceID(ctx, src.ID)
	if err != nil {
		return result, fmt.Errorf("failed to list obligations: %w", err)
	}
	result.Obligations = obs

	return result, nil
}

// GenerateObligations re-runs schedule generation for an existing source.
// Periods that already have an obligation are left alone.
func (s *Service) GenerateObligations(ctx context.Context, sourceID string) (int, error) {
	src, err := s.repos.Sources.GetByID(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to get source: %w", err)
	}
	if src == nil {
		return 0, source.ErrSourceNotFound
	}
	return s.generate(ctx, s.repos, src)
}

func (s *Service) generate(ctx context.Context, r Repos, src *source.Source) (int, error) {
	stubs, err := s.generator.Generate(src)
	if err != nil {
		return 0, err
	}

	inserted, err := r.Obligations.CreateBatch(ctx, stubs)
	if err != nil {
		if errors.Is(err, obligation.ErrDuplicateObligation) {
			log.Printf("Schedule for source %s already exists, skipping insert", src.ID)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to insert obligations: %w", err)
	}
	if skipped := len(stubs) - inserted; skipped > 0 {
		log.Printf("Schedule for source %s: inserted=%d, already present=%d", src.ID, inserted, skipped)
	}
	obligationsGenerated.Add(ctx, int64(inserted))

	return inserted, nil
}

// GetSource returns a source by ID.
func (s *Service) GetSource(ctx context.Context, id string) (*source.Source, error) {
	src, err := s.repos.Sources.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	if src == nil {
		return nil, source.ErrSourceNotFound
	}
	return src, nil
}

// ListSources returns a page of sources.
func (s *Service) ListSources(ctx context.Context, limit, offset int) ([]*source.Source, error) {
	limit, offset = clampPage(limit, offset)
	return s.repos.Sources.List(ctx, limit, offset)
}

// ListObligations returns the source's schedule in period order with each
// obligation's resolved status.
func (s *Service) ListObligations(ctx context.Context, sourceID string) ([]ObligationView, error) {
	src, err := s.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolveSource(ctx, src, s.reconcileOnRead)
	if err != nil {
		return nil, err
	}
	return resolved.views, nil
}

// GetObligation returns one obligation by ID.
func (s *Service) GetObligation(ctx context.Context, id string) (*obligation.Obligation, error) {
	ob, err := s.repos.Obligations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}
	if ob == nil {
		return nil, obligation.ErrObligationNotFound
	}
	return ob, nil
}

// FindObligation returns the obligation of a source for a period.
func (s *Service) FindObligation(ctx context.Context, sourceID string, p period.Period) (*obligation.Obligation, error) {
	ob, err := s.repos.Obligations.GetBySourceAndPeriod(ctx, sourceID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}
	if ob == nil {
		return nil, obligation.ErrObligationNotFound
	}
	return ob, nil
}

// GetTransaction returns a transaction by ID.
func (s *Service) GetTransaction(ctx context.Context, id string) (*transaction.Transaction, error) {
	t, err := s.repos.Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if t == nil {
		return nil, transaction.ErrTransactionNotFound
	}
	return t, nil
}

// ListTransactions returns transactions matching the filter, newest first.
func (s *Service) ListTransactions(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	return s.repos.Transactions.List(ctx, filter)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
