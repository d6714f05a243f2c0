package period

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPeriod is returned when a period string or value cannot be parsed.
var ErrInvalidPeriod = errors.New("invalid period")

// monthLabels is indexed by month-1 and drives display ordering.
var monthLabels = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Period identifies a calendar month. Periods order chronologically.
type Period struct {
	Year  int
	Month time.Month
}

// New builds a Period and validates the month.
func New(year int, month time.Month) (Period, error) {
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, month)
	}
	if year < 1 {
		return Period{}, fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, year)
	}
	return Period{Year: year, Month: month}, nil
}

// FromTime returns the period containing t (in t's location).
func FromTime(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Parse accepts "YYYY-MM".
func Parse(s string) (Period, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: %q (use YYYY-MM)", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q (use YYYY-MM)", ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q (use YYYY-MM)", ErrInvalidPeriod, s)
	}
	return New(year, time.Month(month))
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label renders the period for people, e.g. "Mar 2025".
func (p Period) Label() string {
	if p.Month < time.January || p.Month > time.December {
		return p.String()
	}
	return fmt.Sprintf("%s %d", monthLabels[p.Month-1], p.Year)
}

// Index is the zero-based month index (January = 0).
func (p Period) Index() int {
	return int(p.Month) - 1
}

// Next returns the following month, rolling the year after December.
func (p Period) Next() Period {
	return p.Add(1)
}

// Add moves n months forward (or backward for negative n).
func (p Period) Add(n int) Period {
	idx := p.Year*12 + p.Index() + n
	return Period{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Compare returns -1, 0 or +1.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	}
	return 0
}

func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }
func (p Period) After(o Period) bool  { return p.Compare(o) > 0 }

// Start is the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the next period (exclusive bound).
func (p Period) End() time.Time {
	return p.Next().Start()
}

// Contains reports whether t falls inside the period. Only the calendar
// date of t is considered, so a date stored at local midnight still matches.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// MonthsUntilYearEnd counts the periods from p through December of p's year, inclusive.
func (p Period) MonthsUntilYearEnd() int {
	return int(time.December-p.Month) + 1
}

// MarshalText encodes the period as "YYYY-MM". The zero period encodes as "".
func (p Period) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return []byte{}, nil
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes "YYYY-MM"; "" yields the zero period.
func (p *Period) UnmarshalText(b []byte) error {
	if len(bytes.TrimSpace(b)) == 0 {
		*p = Period{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
