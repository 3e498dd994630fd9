// Package models defines the core domain models for Pachi-Money.
//
// # Models
//
//   - Household: a named group whose members share one ledger
//   - Membership: the (household, user) pair, unique per pair
//   - Entry: one recorded session (date, venue, instrument, stake, payout)
//   - Label: a registry entry used to suggest venue/instrument names
//   - User: a registered account
//
// # Design Principles
//
// 1. **IDs over pointers**: relationships are expressed with ID strings
// 2. **Derived values are methods**: an entry's balance and outcome are always payout - stake
// 3. **Dates are ISO strings**: "2006-01-02", so lexical order equals chronological order
package models
