// Package notify announces ledger changes so that other server instances
// drop their cached snapshots.
package notify

import (
	"encoding/json"
	"time"
)

// Change names what changed in a household.
type Change string

const (
	ChangeEntries    Change = "entries"
	ChangeMembership Change = "membership"
	ChangeHousehold  Change = "household"
)

// LedgerChanged is published after every mutation. It carries no data;
// receivers refetch.
type LedgerChanged struct {
	HouseholdID string    `json:"household_id"`
	Change      Change    `json:"change"`
	ActorID     string    `json:"actor_id,omitempty"`
	Origin      string    `json:"origin"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedFromJSON decodes a message.
func LedgerChangedFromJSON(data []byte) (*LedgerChanged, error) {
	var msg LedgerChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
