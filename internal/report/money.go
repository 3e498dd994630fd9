// Package report renders ledger views as markdown documents.
package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the currency amounts are displayed in.
var Currency = money.JPY

func currency() *money.Currency {
	// money.New never yields a nil currency, even for unknown codes.
	return money.New(0, Currency).Currency()
}

// Amount formats whole currency units, e.g. "¥15,000".
func Amount(v int64) string {
	return Decimal(decimal.NewFromInt(v))
}

// Decimal formats an exact amount in major units, rounding to the
// currency's minor unit.
func Decimal(d decimal.Decimal) string {
	cur := currency()
	return cur.Formatter().Format(d.Shift(int32(cur.Fraction)).Round(0).IntPart())
}

// Signed formats a balance with an explicit sign; zero is "±0".
func Signed(d decimal.Decimal) string {
	switch d.Sign() {
	case 0:
		return "±0"
	case 1:
		return "+" + Decimal(d)
	}
	return Decimal(d)
}
