package models

// LabelKind selects one of the two free-text categories of an entry.
type LabelKind string

const (
	LabelVenue      LabelKind = "venue"
	LabelInstrument LabelKind = "instrument"
)

// Valid reports whether k is a known kind.
func (k LabelKind) Valid() bool {
	return k == LabelVenue || k == LabelInstrument
}

// Label is a registry entry used for suggestions. Registry contents are
// never authoritative over the labels stored on entries.
type Label struct {
	ID          int64
	HouseholdID string
	Kind        LabelKind
	Name        string
}
