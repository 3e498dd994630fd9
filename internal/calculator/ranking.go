package calculator

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// UnsetLabel names the bucket of entries that carry no label.
const UnsetLabel = "未設定"

// Ranking is the win/loss record of one label.
type Ranking struct {
	Label string
	// Unset marks the bucket of unlabelled entries.
	Unset  bool
	Count  int
	Total  decimal.Decimal
	Wins   int
	Losses int
	Draws  int
}

// WinRate is Wins / Count, or 0 for an empty bucket.
func (r Ranking) WinRate() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Count)
}

// Rank groups entries by the label of the given kind and orders the groups
// by summed balance, highest first. Equal totals keep the order in which
// their labels were first encountered.
func Rank(entries []models.Entry, kind models.LabelKind) []Ranking {
	index := make(map[string]int)
	rankings := []Ranking{}
	for _, e := range entries {
		label := e.Label(kind)
		unset := label == ""
		key := label
		if unset {
			key = "\x00unset"
		}

		i, seen := index[key]
		if !seen {
			i = len(rankings)
			index[key] = i
			r := Ranking{Label: label, Unset: unset, Total: decimal.Zero}
			if unset {
				r.Label = UnsetLabel
			}
			rankings = append(rankings, r)
		}

		r := &rankings[i]
		balance := e.Balance()
		r.Count++
		r.Total = r.Total.Add(decimal.NewFromInt(balance))
		switch {
		case balance > 0:
			r.Wins++
		case balance < 0:
			r.Losses++
		default:
			r.Draws++
		}
	}

	slices.SortStableFunc(rankings, func(a, b Ranking) int {
		return b.Total.Cmp(a.Total)
	})
	return rankings
}
