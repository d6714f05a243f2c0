package obligation

import (
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/domain/source"
)

// MaxTermLength caps installment schedules (50 years of monthly payments).
const MaxTermLength = 600

// IDFunc produces obligation identifiers.
type IDFunc func() string

// Generator builds the initial run of obligations for a new source.
type Generator struct {
	newID IDFunc
}

// NewGenerator creates a generator that assigns random UUIDs.
func NewGenerator() *Generator {
	return &Generator{newID: func() string { return uuid.New().String() }}
}

// NewGeneratorWithIDs creates a generator with a custom ID function.
func NewGeneratorWithIDs(newID IDFunc) *Generator {
	if newID == nil {
		return NewGenerator()
	}
	return &Generator{newID: newID}
}

// Generate returns one obligation stub per period owed by src, in chronological order.
//
// Bills run from the activation month through December of the activation year.
// Installments run for exactly TermLength consecutive months.
func (g *Generator) Generate(src *source.Source) ([]CreateParams, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source is nil", ErrGenerationValidation)
	}
	if src.StartPeriod == nil || src.StartPeriod.IsZero() {
		return nil, ErrMissingStartPeriod
	}

	var count int
	switch src.Kind {
	case source.KindBill:
		count = src.StartPeriod.MonthsUntilYearEnd()
	case source.KindInstallment:
		if src.TermLength == nil {
			return nil, ErrMissingTermLength
		}
		count = *src.TermLength
		if count <= 0 || count > MaxTermLength {
			return nil, fmt.Errorf("%w: %d", ErrInvalidTermLength, count)
		}
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrGenerationValidation, source.ErrInvalidKind, src.Kind)
	}

	stubs := make([]CreateParams, 0, count)
	p := *src.StartPeriod
	for i := 0; i < count; i++ {
		stubs = append(stubs, CreateParams{
			ID:             g.newID(),
			SourceID:       src.ID,
			SourceKind:     src.Kind,
			Period:         p,
			ExpectedAmount: src.ExpectedAmount,
		})
		p = p.Next()
	}

	return stubs, nil
}
