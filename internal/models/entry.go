package models

// Outcome classifies an entry by the sign of its balance.
type Outcome string

const (
	OutcomeGain Outcome = "gain"
	OutcomeLoss Outcome = "loss"
)

// Entry is one recorded session in a household ledger.
type Entry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	// HouseholdID is the owning household.
	HouseholdID string

	// UserID is the author. Only the author may edit the entry.
	UserID string

	// Date is the calendar day in "2006-01-02" form. It may be empty on
	// rows written by older clients; such entries never match a bounded
	// window but are included in all-time totals.
	Date string

	// Venue and Instrument are free-text category labels.
	Venue      string
	Instrument string

	// Stake and Payout are non-negative amounts in whole currency units.
	Stake  int64
	Payout int64

	// Note is an optional free-text memo.
	Note string

	// CreatedAt is the Unix timestamp when the entry was stored.
	CreatedAt int64
}

// Balance is the signed result of the session, payout - stake.
func (e Entry) Balance() int64 {
	return e.Payout - e.Stake
}

// Outcome returns OutcomeGain for non-negative balances, OutcomeLoss otherwise.
func (e Entry) Outcome() Outcome {
	if e.Balance() >= 0 {
		return OutcomeGain
	}
	return OutcomeLoss
}

// Label returns the entry's label of the given kind.
func (e Entry) Label(kind LabelKind) string {
	if kind == LabelInstrument {
		return e.Instrument
	}
	return e.Venue
}

// EntryDraft is an entry that has not been stored yet.
// Stores mint ID and CreatedAt on insert.
type EntryDraft struct {
	HouseholdID string
	UserID      string
	Date        string
	Venue       string
	Instrument  string
	Stake       int64
	Payout      int64
	Note        string
}

// Draft copies the entry's content into a new draft, dropping its identity.
func (e Entry) Draft() EntryDraft {
	return EntryDraft{
		HouseholdID: e.HouseholdID,
		UserID:      e.UserID,
		Date:        e.Date,
		Venue:       e.Venue,
		Instrument:  e.Instrument,
		Stake:       e.Stake,
		Payout:      e.Payout,
		Note:        e.Note,
	}
}
