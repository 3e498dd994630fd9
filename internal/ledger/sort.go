package ledger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// SortKey names an ordering of entries.
type SortKey string

const (
	SortDateDesc      SortKey = "date-desc"
	SortDateAsc       SortKey = "date-asc"
	SortBalanceDesc   SortKey = "balance-desc"
	SortBalanceAsc    SortKey = "balance-asc"
	SortVenueAsc      SortKey = "venue"
	SortInstrumentAsc SortKey = "instrument"
)

// SortKeys lists every supported key, default first.
var SortKeys = []SortKey{SortDateDesc, SortDateAsc, SortBalanceDesc, SortBalanceAsc, SortVenueAsc, SortInstrumentAsc}

// ParseSortKey reads a key; "" selects SortDateDesc.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortDateDesc, nil
	}
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, key) {
		return key, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Collation is the language used to compare venue and instrument labels.
var Collation = language.Japanese

// Sort returns a sorted copy of entries. Entries with equal keys keep
// their input order. Unknown keys keep input order entirely.
func Sort(entries []models.Entry, key SortKey) []models.Entry {
	out := slices.Clone(entries)
	if out == nil {
		out = []models.Entry{}
	}

	var compare func(a, b models.Entry) int
	switch key {
	case SortDateAsc:
		compare = func(a, b models.Entry) int { return strings.Compare(a.Date, b.Date) }
	case SortDateDesc:
		compare = func(a, b models.Entry) int { return strings.Compare(b.Date, a.Date) }
	case SortBalanceAsc:
		compare = func(a, b models.Entry) int { return cmp.Compare(a.Balance(), b.Balance()) }
	case SortBalanceDesc:
		compare = func(a, b models.Entry) int { return cmp.Compare(b.Balance(), a.Balance()) }
	case SortVenueAsc, SortInstrumentAsc:
		kind := models.LabelVenue
		if key == SortInstrumentAsc {
			kind = models.LabelInstrument
		}
		// Collators keep internal buffers; one per call.
		c := collate.New(Collation)
		compare = func(a, b models.Entry) int { return c.CompareString(a.Label(kind), b.Label(kind)) }
	default:
		return out
	}

	slices.SortStableFunc(out, compare)
	return out
}
