package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// YEAR-MONTH - The grid's time axis (no sub-monthly granularity)
// =============================================================================

// YearMonth identifies one calendar month. It is the only time granularity
// the engine models.
type YearMonth struct {
	Year  int
	Month time.Month
}

func YM(year int, month time.Month) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// Index maps the month onto a single ordered axis (year*12 + month).
// All range comparisons use this ordering.
func (ym YearMonth) Index() int { return ym.Year*12 + int(ym.Month) - 1 }

func (ym YearMonth) Before(other YearMonth) bool { return ym.Index() < other.Index() }
func (ym YearMonth) After(other YearMonth) bool  { return ym.Index() > other.Index() }
func (ym YearMonth) Equal(other YearMonth) bool  { return ym.Index() == other.Index() }

// Valid reports whether the month number is within [1, 12].
func (ym YearMonth) Valid() bool { return ym.Month >= time.January && ym.Month <= time.December }

// Add shifts the month by n (negative shifts backward), normalizing
// across year boundaries.
func (ym YearMonth) Add(n int) YearMonth {
	idx := ym.Index() + n
	year := idx / 12
	month := idx%12 + 1
	if month <= 0 {
		month += 12
		year--
	}
	return YearMonth{Year: year, Month: time.Month(month)}
}

func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// FirstDay returns midnight UTC on the first of the month.
func (ym YearMonth) FirstDay() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month)) }

// CurrentMonth returns the month containing now, in UTC.
func CurrentMonth() YearMonth {
	now := time.Now().UTC()
	return YearMonth{Year: now.Year(), Month: now.Month()}
}

// ParseYearMonth parses "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q (use YYYY-MM): %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// IterMonths returns every month from `from` through `to` inclusive,
// left to right. Empty when to < from.
func IterMonths(from, to YearMonth) []YearMonth {
	if to.Before(from) {
		return nil
	}
	months := make([]YearMonth, 0, to.Index()-from.Index()+1)
	for cur := from; !cur.After(to); cur = cur.Next() {
		months = append(months, cur)
	}
	return months
}
