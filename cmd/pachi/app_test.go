package main

import (
	"flag"
	"testing"

	"github.com/fjsui0423-max/pachi-money/internal/api"
)

func TestMemberID(t *testing.T) {
	names := map[string]string{"u1": "Aki", "u2": "Ren"}
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"u1", "u1", false},
		{"Ren", "u2", false},
		{"Nobody", "", true},
	}
	for _, tt := range tests {
		got, err := memberID(names, tt.ref)
		if (err != nil) != tt.wantErr {
			t.Fatalf("memberID(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("memberID(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestStringListFlag(t *testing.T) {
	var members stringList
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Var(&members, "member", "")
	if err := f.Parse([]string{"-member", "Aki", "-member", "Ren"}); err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members[0] != "Aki" || members[1] != "Ren" {
		t.Errorf("members = %v", members)
	}
}

func TestToModelKeepsAmounts(t *testing.T) {
	e := toModel(api.Entry{ID: "e1", UserID: "u1", Date: "2024-03-01", Stake: 5000, Payout: 12000, Balance: 7000})
	if e.Balance() != 7000 {
		t.Errorf("Balance() = %d, want 7000", e.Balance())
	}
	if e.ID != "e1" || e.Date != "2024-03-01" {
		t.Errorf("unexpected entry %+v", e)
	}
}
