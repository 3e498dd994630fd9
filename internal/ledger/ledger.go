// Package ledger filters, orders and totals a household's entries.
//
// Every view of a ledger (list, calendar, history, analysis) reads the
// same pipeline: raw snapshot -> Filter -> Sort -> Total. The functions
// here never return errors; entries with missing fields are excluded or
// ordered deterministically instead.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// Members is a selection of authoring users. An empty selection selects
// nothing.
type Members map[string]struct{}

// NewMembers builds a selection from user IDs.
func NewMembers(userIDs ...string) Members {
	m := make(Members, len(userIDs))
	for _, id := range userIDs {
		m[id] = struct{}{}
	}
	return m
}

// Has reports whether userID is selected.
func (m Members) Has(userID string) bool {
	_, ok := m[userID]
	return ok
}

// IDs returns the selected user IDs in no particular order.
func (m Members) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

// CategoryFilter is an exact-match predicate on one label of an entry.
type CategoryFilter struct {
	Kind  models.LabelKind
	Value string
}

// Match reports whether the entry carries the filter's label.
func (f *CategoryFilter) Match(e models.Entry) bool {
	if f == nil {
		return true
	}
	return e.Label(f.Kind) == f.Value
}

// Filter returns the entries authored by a selected member, dated inside
// the window and matching the category filter, in input order. A nil
// category filter matches everything. The result is never nil.
func Filter(entries []models.Entry, members Members, w Window, category *CategoryFilter) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	if len(members) == 0 {
		return out
	}
	for _, e := range entries {
		if !members.Has(e.UserID) || !w.Contains(e.Date) {
			continue
		}
		if !category.Match(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Total sums the balances of the entries.
func Total(entries []models.Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(decimal.NewFromInt(e.Balance()))
	}
	return sum
}

// Query bundles the parameters of one view of the ledger.
type Query struct {
	Members  Members
	Window   Window
	Category *CategoryFilter
	Sort     SortKey
}

// Result is the filtered, ordered view and its balance.
type Result struct {
	Entries []models.Entry
	Total   decimal.Decimal
}

// Run filters then sorts entries and totals the result.
func (q Query) Run(entries []models.Entry) Result {
	filtered := Filter(entries, q.Members, q.Window, q.Category)
	return Result{
		Entries: Sort(filtered, q.Sort),
		Total:   Total(filtered),
	}
}
