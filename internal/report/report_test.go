package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/calculator"
	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/models"
)

func TestMoneyFormatting(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Amount(15000), "¥15,000"},
		{Amount(0), "¥0"},
		{Signed(decimal.NewFromInt(2500)), "+¥2,500"},
		{Signed(decimal.NewFromInt(-8000)), "-¥8,000"},
		{Signed(decimal.Zero), "±0"},
		{Decimal(decimal.RequireFromString("1234567")), "¥1,234,567"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func sample() []models.Entry {
	return []models.Entry{
		{ID: "e1", UserID: "u1", Date: "2024-01-05", Venue: "Maruhan", Instrument: "Eva", Stake: 10000, Payout: 25000},
		{ID: "e2", UserID: "u2", Date: "2024-01-20", Venue: "Dynam", Stake: 8000},
		{ID: "e3", UserID: "u1", Date: "2023-12-31", Venue: "Maruhan", Stake: 3000, Payout: 3000},
	}
}

func assertContains(t *testing.T, doc string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(doc, p) {
			t.Errorf("document missing %q:\n%s", p, doc)
		}
	}
}

func TestEntries(t *testing.T) {
	entries := sample()
	doc := Entries("Weekend crew", entries, ledger.Total(entries), map[string]string{"u1": "Alice"})
	assertContains(t, doc,
		"# Weekend crew",
		"Alice",
		"u2",
		"+¥15,000",
		"-¥8,000",
		"**+¥7,000**",
		"3 entries",
	)
}

func TestHistoryAndRanking(t *testing.T) {
	entries := sample()
	doc := History(calculator.History(entries))
	assertContains(t, doc, "**+¥7,000**", "2024/01", "2023/12", "## By year")

	rank := Ranking(models.LabelVenue, calculator.Rank(entries, models.LabelVenue))
	assertContains(t, rank, "# Venue ranking", "Maruhan", "1-0-1", "50%")

	inst := Ranking(models.LabelInstrument, calculator.Rank(entries, models.LabelInstrument))
	assertContains(t, inst, calculator.UnsetLabel)
}

func TestStandings(t *testing.T) {
	out := Standings(calculator.MemberBalances(sample()), map[string]string{"u1": "Aki"})
	for _, want := range []string{"# Standings", "Aki", "¥13,000", "¥28,000", "+¥15,000", "u2", "-¥8,000"} {
		if !strings.Contains(out, want) {
			t.Errorf("standings missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Aki") > strings.Index(out, "u2") {
		t.Errorf("expected the member ahead to be listed first:\n%s", out)
	}
}

func TestAnalysis(t *testing.T) {
	entries := sample()
	doc := Analysis(calculator.Analysis(entries, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assertContains(t, doc, "## Last 12 months", "2023/02", "2024/01", "Final balance: **+¥7,000**")
}

func TestCalendar(t *testing.T) {
	entries := sample()
	// January 2024 starts on a Monday.
	doc := Calendar(2024, time.January, calculator.Calendar(entries, 2024, time.January))
	assertContains(t, doc, "# 2024-01", "5 +¥15,000", "20 -¥8,000", "Month balance: **+¥7,000**")
	if strings.Contains(doc, "31 ±0") {
		t.Error("empty day shows a balance")
	}
}

func TestHouseholds(t *testing.T) {
	doc := Households([]Household{
		{ID: "h1", Name: "Home", Role: "owner", IsDefault: true},
		{ID: "h2", Name: "Friends", Role: "member"},
	})
	assertContains(t, doc, "Home", "Friends", "owner", "member", "*")
}

func TestHTML(t *testing.T) {
	entries := sample()
	out, err := HTML(Entries("Ledger", entries, ledger.Total(entries), nil))
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	assertContains(t, out, "<h1>Ledger</h1>", "<table>", "Maruhan</td>", "<strong>Total</strong>")
}
