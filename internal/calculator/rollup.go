package calculator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// Granularity selects the bucket size of a roll-up.
type Granularity int

const (
	ByMonth Granularity = iota
	ByYear
)

// Bucket is the summed balance of one period.
// Key is "2006-01" for months and "2006" for years.
type Bucket struct {
	Key   string
	Total decimal.Decimal
	Count int
}

// PeriodKey truncates an entry date to the bucket key of g.
// It reports false for undated entries.
func PeriodKey(date string, g Granularity) (string, bool) {
	t, ok := ledger.ParseDate(date)
	if !ok {
		return "", false
	}
	if g == ByYear {
		return fmt.Sprintf("%04d", t.Year()), true
	}
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())), true
}

// Rollup buckets entries by period and sums balances per bucket.
// Only periods with data appear, oldest first. Undated entries are skipped.
func Rollup(entries []models.Entry, g Granularity) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, e := range entries {
		key, ok := PeriodKey(e.Date, g)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key, Total: decimal.Zero})
		}
		buckets[i].Total = buckets[i].Total.Add(decimal.NewFromInt(e.Balance()))
		buckets[i].Count++
	}
	slices.SortFunc(buckets, func(a, b Bucket) int { return strings.Compare(a.Key, b.Key) })
	return buckets
}

// MonthlyRollup is Rollup by month.
func MonthlyRollup(entries []models.Entry) []Bucket { return Rollup(entries, ByMonth) }

// YearlyRollup is Rollup by calendar year.
func YearlyRollup(entries []models.Entry) []Bucket { return Rollup(entries, ByYear) }

// RollingMonths returns exactly n monthly buckets ending with the month of
// end, oldest first. Months without entries appear with a zero total.
func RollingMonths(entries []models.Entry, end time.Time, n int) []Bucket {
	if n <= 0 {
		return []Bucket{}
	}
	first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)

	buckets := make([]Bucket, n)
	index := make(map[string]int, n)
	for i := range buckets {
		m := first.AddDate(0, i, 0)
		key := fmt.Sprintf("%04d-%02d", m.Year(), int(m.Month()))
		buckets[i] = Bucket{Key: key, Total: decimal.Zero}
		index[key] = i
	}

	for _, e := range entries {
		key, ok := PeriodKey(e.Date, ByMonth)
		if !ok {
			continue
		}
		if i, in := index[key]; in {
			buckets[i].Total = buckets[i].Total.Add(decimal.NewFromInt(e.Balance()))
			buckets[i].Count++
		}
	}
	return buckets
}

// Newest returns the buckets newest first.
func Newest(buckets []Bucket) []Bucket {
	out := slices.Clone(buckets)
	slices.Reverse(out)
	return out
}
