package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// Point is one step of a cumulative series.
type Point struct {
	EntryID string
	Date    string
	Balance int64
	Running decimal.Decimal
}

// Cumulative orders entries by date (ties keep input order) and returns
// the running total after each entry. The total starts at zero for the
// first entry of the given set, so callers scope it by pre-filtering.
func Cumulative(entries []models.Entry) []Point {
	sorted := ledger.Sort(entries, ledger.SortDateAsc)
	points := make([]Point, len(sorted))
	running := decimal.Zero
	for i, e := range sorted {
		running = running.Add(decimal.NewFromInt(e.Balance()))
		points[i] = Point{EntryID: e.ID, Date: e.Date, Balance: e.Balance(), Running: running}
	}
	return points
}

// Final returns the last running value of the series, or zero.
func Final(points []Point) decimal.Decimal {
	if len(points) == 0 {
		return decimal.Zero
	}
	return points[len(points)-1].Running
}

// DefaultMaxPoints is the thinning threshold used by the analysis view.
const DefaultMaxPoints = 50

// Thin samples a series down to roughly max points. The first and last
// elements are always kept and order is preserved. Series at or below
// max are returned unchanged.
func Thin[T any](series []T, max int) []T {
	n := len(series)
	if max <= 0 || n <= max {
		return series
	}
	step := (n + max - 1) / max
	out := make([]T, 0, max+1)
	for i, v := range series {
		if i == 0 || i == n-1 || i%step == 0 {
			out = append(out, v)
		}
	}
	return out
}
