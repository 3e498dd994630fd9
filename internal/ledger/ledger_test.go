package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

func sampleEntries() []models.Entry {
	return []models.Entry{
		{ID: "e1", UserID: "alice", Date: "2024-01-05", Venue: "Maruhan", Instrument: "Eva", Stake: 1000, Payout: 0},
		{ID: "e2", UserID: "bob", Date: "2024-01-10", Venue: "Espace", Instrument: "Umi", Stake: 500, Payout: 2000},
		{ID: "e3", UserID: "alice", Date: "2023-12-31", Venue: "Maruhan", Instrument: "Umi", Stake: 300, Payout: 300},
		{ID: "e4", UserID: "carol", Date: "2024-02-01", Venue: "", Instrument: "Eva", Stake: 2000, Payout: 5000},
		{ID: "e5", UserID: "alice", Date: "", Venue: "Espace", Stake: 100, Payout: 0},
		{ID: "e6", UserID: "bob", Date: "not-a-date", Venue: "Espace", Stake: 100, Payout: 50},
	}
}

func ids(entries []models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilter(t *testing.T) {
	entries := sampleEntries()

	tests := []struct {
		name     string
		members  Members
		window   Window
		category *CategoryFilter
		want     []string
	}{
		{
			name:    "empty selection selects nothing",
			members: NewMembers(),
			window:  AllTime(),
			want:    []string{},
		},
		{
			name:    "all time keeps undated entries",
			members: NewMembers("alice"),
			window:  AllTime(),
			want:    []string{"e1", "e3", "e5"},
		},
		{
			name:    "year excludes missing and bad dates",
			members: NewMembers("alice", "bob"),
			window:  Year(2024),
			want:    []string{"e1", "e2"},
		},
		{
			name:    "month",
			members: NewMembers("alice", "bob", "carol"),
			window:  Month(2024, time.February),
			want:    []string{"e4"},
		},
		{
			name:     "category applies after window",
			members:  NewMembers("alice", "bob", "carol"),
			window:   Year(2024),
			category: &CategoryFilter{Kind: models.LabelInstrument, Value: "Eva"},
			want:     []string{"e1", "e4"},
		},
		{
			name:     "category on empty label",
			members:  NewMembers("alice", "bob", "carol"),
			window:   AllTime(),
			category: &CategoryFilter{Kind: models.LabelVenue, Value: ""},
			want:     []string{"e4"},
		},
		{
			name:    "unknown member",
			members: NewMembers("dave"),
			window:  AllTime(),
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(entries, tt.members, tt.window, tt.category)
			if got == nil {
				t.Fatal("Filter returned nil")
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Filter() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterTotalMatchesManualSum(t *testing.T) {
	entries := sampleEntries()
	selections := []Members{
		NewMembers(),
		NewMembers("alice"),
		NewMembers("bob", "carol"),
		NewMembers("alice", "bob", "carol"),
	}

	for _, members := range selections {
		var manual int64
		for _, e := range entries {
			if members.Has(e.UserID) {
				manual += e.Balance()
			}
		}
		got := Total(Filter(entries, members, AllTime(), nil))
		if !got.Equal(decimal.NewFromInt(manual)) {
			t.Errorf("members %v: total %s, want %d", members.IDs(), got, manual)
		}
	}
}

func TestTotalIsOrderIndependent(t *testing.T) {
	entries := sampleEntries()
	forward := Total(entries)
	backward := Total(Sort(entries, SortBalanceAsc))
	if !forward.Equal(backward) {
		t.Errorf("totals differ: %s vs %s", forward, backward)
	}
	if !forward.Equal(decimal.NewFromInt(-1000 + 1500 + 0 + 3000 - 100 - 50)) {
		t.Errorf("unexpected total %s", forward)
	}
}

func TestSort(t *testing.T) {
	entries := []models.Entry{
		{ID: "a", Date: "2024-01-10", Venue: "Espace", Stake: 100, Payout: 0},
		{ID: "b", Date: "2024-01-05", Venue: "Maruhan", Stake: 0, Payout: 500},
		{ID: "c", Date: "2024-01-10", Venue: "Espace", Stake: 0, Payout: 0},
		{ID: "d", Date: "2023-11-30", Venue: "Dynam", Stake: 100, Payout: 0},
	}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortDateAsc, []string{"d", "b", "a", "c"}},
		{SortDateDesc, []string{"a", "c", "b", "d"}},
		{SortBalanceAsc, []string{"a", "d", "c", "b"}},
		{SortBalanceDesc, []string{"b", "c", "a", "d"}},
		{SortVenueAsc, []string{"d", "a", "c", "b"}},
		{SortKey("bogus"), []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := Sort(entries, tt.key)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Sort(%s) = %v, want %v", tt.key, ids(got), tt.want)
			}
		})
	}

	if entries[0].ID != "a" {
		t.Error("Sort must not reorder its input")
	}
}

func TestSortIsStableAcrossKeyChanges(t *testing.T) {
	entries := []models.Entry{
		{ID: "x1", Date: "2024-03-01", Instrument: "Umi", Stake: 100},
		{ID: "x2", Date: "2024-03-01", Instrument: "Umi", Stake: 100},
		{ID: "x3", Date: "2024-03-01", Instrument: "Umi", Stake: 100},
	}
	for _, key := range SortKeys {
		got := Sort(entries, key)
		if !equalIDs(ids(got), []string{"x1", "x2", "x3"}) {
			t.Errorf("Sort(%s) broke ties: %v", key, ids(got))
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		in       string
		want     Window
		str      string
		from, to string
	}{
		{"", AllTime(), "all", "", ""},
		{"all", AllTime(), "all", "", ""},
		{"2024", Year(2024), "2024", "2024-01-01", "2024-12-31"},
		{"2024-02", Month(2024, time.February), "2024-02", "2024-02-01", "2024-02-29"},
		{"2023-2", Month(2023, time.February), "2023-02", "2023-02-01", "2023-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, err := ParseWindow(tt.in)
			if err != nil {
				t.Fatalf("ParseWindow(%q) failed: %v", tt.in, err)
			}
			if w != tt.want {
				t.Errorf("ParseWindow(%q) = %+v, want %+v", tt.in, w, tt.want)
			}
			if w.String() != tt.str {
				t.Errorf("String() = %q, want %q", w.String(), tt.str)
			}
			from, to := w.Bounds()
			if from != tt.from || to != tt.to {
				t.Errorf("Bounds() = %s..%s, want %s..%s", from, to, tt.from, tt.to)
			}
		})
	}

	for _, bad := range []string{"20x4", "2024-13", "2024-0", "2024-ab"} {
		if _, err := ParseWindow(bad); err == nil {
			t.Errorf("ParseWindow(%q) should fail", bad)
		}
	}
}

func TestWindowContainsLooseDates(t *testing.T) {
	w := Month(2024, time.January)
	if !w.Contains("2024-1-5") {
		t.Error("unpadded date should parse")
	}
	if w.Contains("2024/01/05") {
		t.Error("slash-separated dates are normalized on import, not here")
	}
}

func TestQueryRun(t *testing.T) {
	q := Query{
		Members: NewMembers("alice", "bob"),
		Window:  Month(2024, time.January),
		Sort:    SortBalanceDesc,
	}
	res := q.Run(sampleEntries())
	if !equalIDs(ids(res.Entries), []string{"e2", "e1"}) {
		t.Errorf("entries = %v", ids(res.Entries))
	}
	if !res.Total.Equal(decimal.NewFromInt(500)) {
		t.Errorf("total = %s, want 500", res.Total)
	}
}

func TestParseSortKey(t *testing.T) {
	if k, err := ParseSortKey(""); err != nil || k != SortDateDesc {
		t.Errorf("default key = %q, %v", k, err)
	}
	if k, err := ParseSortKey("Balance-Asc"); err != nil || k != SortBalanceAsc {
		t.Errorf("ParseSortKey = %q, %v", k, err)
	}
	if _, err := ParseSortKey("price"); err == nil {
		t.Error("expected error for unknown key")
	}
}
