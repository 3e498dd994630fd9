package calculator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// Day is one cell of a calendar month.
type Day struct {
	Date    string
	Day     int
	Weekday time.Weekday
	Total   decimal.Decimal
	Count   int
}

// Calendar returns one cell per day of the month. Entries dated outside
// the month are ignored.
func Calendar(entries []models.Entry, year int, month time.Month) []Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	n := first.AddDate(0, 1, -1).Day()

	days := make([]Day, n)
	for i := range days {
		d := first.AddDate(0, 0, i)
		days[i] = Day{Date: d.Format(ledger.DateLayout), Day: i + 1, Weekday: d.Weekday(), Total: decimal.Zero}
	}

	for _, e := range entries {
		t, ok := ledger.ParseDate(e.Date)
		if !ok || t.Year() != year || t.Month() != month {
			continue
		}
		d := &days[t.Day()-1]
		d.Total = d.Total.Add(decimal.NewFromInt(e.Balance()))
		d.Count++
	}
	return days
}

// HistoryView is the lifetime summary of a ledger.
type HistoryView struct {
	Lifetime decimal.Decimal
	Count    int
	// Years and Months hold periods with data, newest first.
	Years  []Bucket
	Months []Bucket
}

// History summarizes entries over their whole lifetime.
func History(entries []models.Entry) HistoryView {
	return HistoryView{
		Lifetime: ledger.Total(entries),
		Count:    len(entries),
		Years:    Newest(YearlyRollup(entries)),
		Months:   Newest(MonthlyRollup(entries)),
	}
}

// AnalysisView is the trend and leaderboard summary of a ledger.
type AnalysisView struct {
	// Monthly covers the twelve months ending at the reference month.
	Monthly []Bucket
	// Trajectory is the thinned cumulative series.
	Trajectory  []Point
	Final       decimal.Decimal
	Venues      []Ranking
	Instruments []Ranking
}

// Analysis builds the analysis view of entries as of ref.
func Analysis(entries []models.Entry, ref time.Time) AnalysisView {
	series := Cumulative(entries)
	return AnalysisView{
		Monthly:     RollingMonths(entries, ref, 12),
		Trajectory:  Thin(series, DefaultMaxPoints),
		Final:       Final(series),
		Venues:      Rank(entries, models.LabelVenue),
		Instruments: Rank(entries, models.LabelInstrument),
	}
}

// MonthLabel renders a month bucket key for display ("2024-01" -> "2024/01").
func MonthLabel(key string) string {
	var y, m int
	if _, err := fmt.Sscanf(key, "%d-%d", &y, &m); err != nil {
		return key
	}
	return fmt.Sprintf("%04d/%02d", y, m)
}
