package transfer

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// Record is a normalized row, ready to become an entry.
type Record struct {
	Date       string
	Venue      string
	Instrument string
	Stake      int64
	Payout     int64
	Note       string
}

// Balance is payout - stake. It is the only balance an imported entry gets.
func (r Record) Balance() int64 { return r.Payout - r.Stake }

// Policy adjusts normalization.
type Policy struct {
	// RejectMismatches skips rows whose supplied balance disagrees with
	// payout - stake instead of importing them with the computed value.
	RejectMismatches bool
}

// Normalized is the outcome of normalizing a batch.
type Normalized struct {
	Records []Record
	// Skipped counts rows without a usable date, plus rejected mismatches.
	Skipped int
	// Mismatches counts rows whose supplied balance disagreed with
	// payout - stake.
	Mismatches int
	// MismatchLines holds the 1-based positions of those rows.
	MismatchLines []int
}

// Normalize converts rows into records. Dates are rewritten to
// "2006-01-02"; amounts lose thousands separators and currency marks and
// become 0 when unparseable. Rows without a parseable date are skipped.
func Normalize(rows []Row, policy Policy) Normalized {
	out := Normalized{Records: make([]Record, 0, len(rows))}
	for i, row := range rows {
		date, ok := NormalizeDate(row.Date)
		if !ok {
			out.Skipped++
			continue
		}
		rec := Record{
			Date:       date,
			Venue:      strings.TrimSpace(row.Venue),
			Instrument: strings.TrimSpace(row.Instrument),
			Stake:      ParseAmount(row.Stake),
			Payout:     ParseAmount(row.Payout),
			Note:       strings.TrimSpace(row.Note),
		}

		if supplied, ok := parseSigned(row.Balance); ok && supplied != rec.Balance() {
			out.Mismatches++
			out.MismatchLines = append(out.MismatchLines, i+1)
			if policy.RejectMismatches {
				out.Skipped++
				continue
			}
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

// Drafts turns the records into entry drafts attributed to userID in
// householdID.
func (n Normalized) Drafts(householdID, userID string) []models.EntryDraft {
	drafts := make([]models.EntryDraft, len(n.Records))
	for i, r := range n.Records {
		drafts[i] = models.EntryDraft{
			HouseholdID: householdID,
			UserID:      userID,
			Date:        r.Date,
			Venue:       r.Venue,
			Instrument:  r.Instrument,
			Stake:       r.Stake,
			Payout:      r.Payout,
			Note:        r.Note,
		}
	}
	return drafts
}

var dateSeparators = strings.NewReplacer("/", "-", ".", "-", "年", "-", "月", "-", "日", "")

// NormalizeDate accepts "2024/1/5", "2024.01.05", "2024-1-5" and
// "2024年1月5日", and returns the canonical "2024-01-05".
func NormalizeDate(s string) (string, bool) {
	s = dateSeparators.Replace(strings.TrimSpace(s))
	if i := strings.IndexAny(s, " T"); i >= 0 {
		s = s[:i]
	}
	t, ok := ledger.ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(ledger.DateLayout), true
}

var amountNoise = strings.NewReplacer(",", "", "，", "", "_", "", " ", "", "¥", "", "￥", "", "円", "")

// ParseAmount reads a non-negative whole amount. Unparseable, negative or
// out-of-range input yields 0; fractions are rounded.
func ParseAmount(s string) int64 {
	v, ok := parseSigned(s)
	if !ok || v < 0 {
		return 0
	}
	return v
}

func parseSigned(s string) (int64, bool) {
	s = amountNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	d = d.Round(0)
	if d.Abs().GreaterThan(maxAmount) {
		return 0, false
	}
	return d.IntPart(), true
}

// maxAmount bounds amounts so that IntPart never wraps.
var maxAmount = decimal.NewFromInt(math.MaxInt64)
