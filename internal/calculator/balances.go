package calculator

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// MemberBalance is one member's position in a ledger.
type MemberBalance struct {
	UserID string
	// TotalStaked and TotalPaidOut sum the stakes and payouts of the
	// member's entries.
	TotalStaked  decimal.Decimal
	TotalPaidOut decimal.Decimal
	// NetBalance is TotalPaidOut - TotalStaked. Positive means ahead.
	NetBalance decimal.Decimal
	Count      int
}

// MemberBalances aggregates entries per author, best net balance first.
// Members with equal balances are ordered by user ID.
//
// Algorithm:
// - For each entry: the author staked Stake and received Payout
// - Aggregate: net_balance = total_paid_out - total_staked
func MemberBalances(entries []models.Entry) []MemberBalance {
	balances := make(map[string]*MemberBalance)

	for _, e := range entries {
		bal, exists := balances[e.UserID]
		if !exists {
			bal = &MemberBalance{
				UserID:       e.UserID,
				TotalStaked:  decimal.Zero,
				TotalPaidOut: decimal.Zero,
			}
			balances[e.UserID] = bal
		}
		bal.TotalStaked = bal.TotalStaked.Add(decimal.NewFromInt(e.Stake))
		bal.TotalPaidOut = bal.TotalPaidOut.Add(decimal.NewFromInt(e.Payout))
		bal.Count++
	}

	memberBalances := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		bal.NetBalance = bal.TotalPaidOut.Sub(bal.TotalStaked)
		memberBalances = append(memberBalances, *bal)
	}

	slices.SortFunc(memberBalances, func(a, b MemberBalance) int {
		if c := b.NetBalance.Cmp(a.NetBalance); c != 0 {
			return c
		}
		if a.UserID < b.UserID {
			return -1
		}
		if a.UserID > b.UserID {
			return 1
		}
		return 0
	})
	return memberBalances
}
