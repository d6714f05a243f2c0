package obligation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/transaction"
)

// Legacy matching thresholds. Only rows created before obligation links
// existed should ever be resolved this way.
const (
	FuzzyMinNameLength = 3
	FuzzyGraceWindow   = 7 * 24 * time.Hour
)

// FuzzyAmountTolerance is the accepted distance from the expected amount.
var FuzzyAmountTolerance = decimal.NewFromInt(1)

// How close a transaction date is to an obligation's period. Lower wins.
const (
	rankOwnPeriod = iota
	rankPriorDecember
	rankGrace
)

// FuzzyMatch guesses a payment from name, amount and date proximity.
// Linked transactions are never considered; they belong to their own obligation.
// A transaction dated inside the obligation's own month beats one found in
// the grace window, and among equals the latest date wins.
type FuzzyMatch struct{}

func (FuzzyMatch) Name() Evidence { return EvidenceFuzzyMatch }

func (FuzzyMatch) Try(in Input) (Resolution, bool) {
	name := fuzzyName(in.SourceName)
	if name == "" {
		return Resolution{}, false
	}

	var match *transaction.Transaction
	bestRank := 0
	for _, t := range in.Candidates {
		rank, ok := fuzzyRank(in.Obligation, name, t)
		if !ok {
			continue
		}
		if match == nil || rank < bestRank || (rank == bestRank && t.Date.After(match.Date)) {
			match, bestRank = t, rank
		}
	}
	if match == nil {
		return Resolution{}, false
	}

	return Resolution{
		Status:         StatusPaid,
		DisplayAmount:  match.Amount.Abs(),
		Evidence:       EvidenceFuzzyMatch,
		TransactionIDs: []string{match.ID},
	}, true
}

// AssignFuzzyCandidates hands each unlinked transaction to at most one of obs:
// the obligation whose window it fits best, the earliest period on a tie.
// The result maps obligation ID to the transactions it may fuzzy-match.
// obs should only hold obligations that can still fall through to FuzzyMatch.
func AssignFuzzyCandidates(obs []*Obligation, sourceName string, txns []*transaction.Transaction) map[string][]*transaction.Transaction {
	assigned := make(map[string][]*transaction.Transaction)
	name := fuzzyName(sourceName)
	if name == "" {
		return assigned
	}

	for _, t := range txns {
		var owner *Obligation
		bestRank := 0
		for _, ob := range obs {
			rank, ok := fuzzyRank(ob, name, t)
			if !ok {
				continue
			}
			if owner == nil || rank < bestRank || (rank == bestRank && ob.Period.Before(owner.Period)) {
				owner, bestRank = ob, rank
			}
		}
		if owner != nil {
			assigned[owner.ID] = append(assigned[owner.ID], t)
		}
	}
	return assigned
}

func fuzzyName(sourceName string) string {
	name := strings.ToLower(strings.TrimSpace(sourceName))
	if len(name) < FuzzyMinNameLength {
		return ""
	}
	return name
}

// fuzzyRank reports whether t could be a legacy payment of o and how close its date is.
func fuzzyRank(o *Obligation, name string, t *transaction.Transaction) (int, bool) {
	if t.IsLinked() {
		return 0, false
	}
	if !strings.Contains(strings.ToLower(t.Name), name) {
		return 0, false
	}
	if !withinTolerance(t.Amount, o.ExpectedAmount) {
		return 0, false
	}
	return dateRank(o, t.Date)
}

func withinTolerance(amount, expected decimal.Decimal) bool {
	return amount.Abs().Sub(expected).Abs().LessThanOrEqual(FuzzyAmountTolerance)
}

// dateRank accepts dates inside the obligation's period, inside December of
// the prior year for January obligations, or up to the grace window after the
// period ends.
func dateRank(o *Obligation, d time.Time) (int, bool) {
	p := o.Period
	if p.Contains(d) {
		return rankOwnPeriod, true
	}
	if p.Month == time.January && p.Add(-1).Contains(d) {
		return rankPriorDecember, true
	}
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	end := p.End()
	if !day.Before(end) && day.Before(end.Add(FuzzyGraceWindow)) {
		return rankGrace, true
	}
	return 0, false
}
