package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical entry date form. Lexical order of dates in
// this form equals chronological order.
const DateLayout = "2006-01-02"

// looseDateLayout also accepts unpadded months and days ("2024-1-5").
const looseDateLayout = "2006-1-2"

// ParseDate parses an entry date. It reports false for empty or
// unparseable input instead of returning an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(looseDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WindowKind selects the span of a Window.
type WindowKind int

const (
	KindAllTime WindowKind = iota
	KindYear
	KindMonth
)

// Window is a date range over which entries are viewed:
// all time, one calendar year or one calendar month.
type Window struct {
	Kind  WindowKind
	Year  int
	Month time.Month
}

// AllTime returns the unbounded window.
func AllTime() Window { return Window{Kind: KindAllTime} }

// Year returns the window covering calendar year y.
func Year(y int) Window { return Window{Kind: KindYear, Year: y} }

// Month returns the window covering month m of year y.
func Month(y int, m time.Month) Window { return Window{Kind: KindMonth, Year: y, Month: m} }

// MonthOf returns the month window containing t.
func MonthOf(t time.Time) Window { return Month(t.Year(), t.Month()) }

// Contains reports whether the entry date falls inside the window.
// The all-time window admits every entry, dated or not. Bounded windows
// reject missing or unparseable dates.
func (w Window) Contains(date string) bool {
	if w.Kind == KindAllTime {
		return true
	}
	t, ok := ParseDate(date)
	if !ok {
		return false
	}
	switch w.Kind {
	case KindYear:
		return t.Year() == w.Year
	case KindMonth:
		return t.Year() == w.Year && t.Month() == w.Month
	}
	return false
}

// Bounds returns the first and last day of a bounded window in DateLayout.
// Both are empty for the all-time window.
func (w Window) Bounds() (from, to string) {
	switch w.Kind {
	case KindYear:
		start := time.Date(w.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start.Format(DateLayout), start.AddDate(1, 0, -1).Format(DateLayout)
	case KindMonth:
		start := time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, time.UTC)
		return start.Format(DateLayout), start.AddDate(0, 1, -1).Format(DateLayout)
	}
	return "", ""
}

// String renders the window the way ParseWindow reads it.
func (w Window) String() string {
	switch w.Kind {
	case KindYear:
		return fmt.Sprintf("%04d", w.Year)
	case KindMonth:
		return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
	}
	return "all"
}

// ParseWindow reads "all" (or ""), "2024" or "2024-01".
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllTime(), nil
	}

	yearPart, monthPart, hasMonth := strings.Cut(s, "-")
	y, err := strconv.Atoi(yearPart)
	if err != nil || y < 1 || y > 9999 {
		return Window{}, fmt.Errorf("invalid window %q: bad year", s)
	}
	if !hasMonth {
		return Year(y), nil
	}
	m, err := strconv.Atoi(monthPart)
	if err != nil || m < 1 || m > 12 {
		return Window{}, fmt.Errorf("invalid window %q: bad month", s)
	}
	return Month(y, time.Month(m)), nil
}
