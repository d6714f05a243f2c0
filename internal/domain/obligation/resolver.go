package obligation

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/domain/transaction"
)

// Evidence names the signal a resolution was derived from.
type Evidence string

const (
	EvidenceDirectLink     Evidence = "direct_link"
	EvidenceManualOverride Evidence = "manual_override"
	EvidenceFuzzyMatch     Evidence = "fuzzy_match"
	EvidenceNone           Evidence = "none"
)

// Input is what a strategy sees when resolving one obligation.
type Input struct {
	Obligation *Obligation
	SourceName string
	Candidates []*transaction.Transaction
}

// Resolution is the display status of an obligation.
type Resolution struct {
	Status           Status          `json:"status"`
	DisplayAmount    decimal.Decimal `json:"displayAmount"`
	IsManualOverride bool            `json:"isManualOverride"`
	Evidence         Evidence        `json:"evidence"`
	TransactionIDs   []string        `json:"transactionIds,omitempty"`
}

// Strategy is one layer of evidence. Try reports false when it has nothing to say.
type Strategy interface {
	Name() Evidence
	Try(in Input) (Resolution, bool)
}

// Resolver evaluates strategies in order; the first that answers wins.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds the standard chain: direct link, manual override and,
// when fuzzy is true, the legacy fuzzy matcher.
func NewResolver(fuzzy bool) *Resolver {
	strategies := []Strategy{DirectLink{}, ManualOverride{}}
	if fuzzy {
		strategies = append(strategies, FuzzyMatch{})
	}
	return &Resolver{strategies: strategies}
}

// NewResolverWithStrategies builds a resolver from an explicit chain.
func NewResolverWithStrategies(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve computes the display status for in.Obligation.
func (r *Resolver) Resolve(in Input) Resolution {
	for _, s := range r.strategies {
		if res, ok := s.Try(in); ok {
			return res
		}
	}
	return Resolution{
		Status:        StatusPending,
		DisplayAmount: in.Obligation.ExpectedAmount,
		Evidence:      EvidenceNone,
	}
}

// DirectLink trusts transactions whose obligation link points at the obligation.
// Several linked transactions are summed.
type DirectLink struct{}

func (DirectLink) Name() Evidence { return EvidenceDirectLink }

func (DirectLink) Try(in Input) (Resolution, bool) {
	var linked []*transaction.Transaction
	for _, t := range in.Candidates {
		if t.LinkedTo(in.Obligation.ID) {
			linked = append(linked, t)
		}
	}
	if len(linked) == 0 {
		return Resolution{}, false
	}

	amount := transaction.SumAmounts(linked)
	ids := make([]string, 0, len(linked))
	for _, t := range linked {
		ids = append(ids, t.ID)
	}
	return Resolution{
		Status:         StatusFor(amount, in.Obligation.ExpectedAmount),
		DisplayAmount:  amount,
		Evidence:       EvidenceDirectLink,
		TransactionIDs: ids,
	}, true
}

// ManualOverride reads a stored amount_paid that has no linked transaction behind it.
// Callers must render these conspicuously.
type ManualOverride struct{}

func (ManualOverride) Name() Evidence { return EvidenceManualOverride }

func (ManualOverride) Try(in Input) (Resolution, bool) {
	paid := in.Obligation.PaidAmount()
	if !paid.IsPositive() {
		return Resolution{}, false
	}
	return Resolution{
		Status:           StatusFor(paid, in.Obligation.ExpectedAmount),
		DisplayAmount:    paid,
		IsManualOverride: true,
		Evidence:         EvidenceManualOverride,
	}, true
}
