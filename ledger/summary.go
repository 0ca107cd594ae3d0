// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package ledger

import (
	"github.com/shopspring/decimal"
)

var half = decimal.NewFromFloat(0.5)

// Summary holds the year-end totals for one financial year.
type Summary struct {
	Income             decimal.Decimal
	DiscountEligible   decimal.Decimal // gains held > 12 months
	DiscountIneligible decimal.Decimal
	Losses             decimal.Decimal // sum of capital losses, <= 0
	NetCapitalGains    decimal.Decimal
}

// Summarize reduces events to year-end totals. It is a pure function of its
// input and does not depend on event order.
//
// Losses are applied against discount-ineligible gains first and then
// against eligible gains; whatever eligible gain survives is halved.
// Net capital losses are not carried forward, so NetCapitalGains is never
// negative.
func Summarize(events []GainEvent) Summary {
	s := Summary{
		Income:             decimal.Zero,
		DiscountEligible:   decimal.Zero,
		DiscountIneligible: decimal.Zero,
		Losses:             decimal.Zero,
	}
	for _, ev := range events {
		switch {
		case ev.Kind == Income:
			s.Income = s.Income.Add(ev.Amount)
		case ev.Kind != CapitalGain:
			continue
		case ev.IsLoss():
			s.Losses = s.Losses.Add(ev.Amount)
		case ev.Discount:
			s.DiscountEligible = s.DiscountEligible.Add(ev.Amount)
		default:
			s.DiscountIneligible = s.DiscountIneligible.Add(ev.Amount)
		}
	}
	s.NetCapitalGains = NetCapitalGains(s.DiscountIneligible, s.DiscountEligible, s.Losses)
	return s
}

// NetCapitalGains applies the netting rule to the three gain/loss totals.
// losses may be given with either sign; its absolute value is used.
func NetCapitalGains(ineligible, eligible, losses decimal.Decimal) decimal.Decimal {
	l := losses.Abs()
	if l.GreaterThanOrEqual(ineligible) {
		return decimal.Max(decimal.Zero, ineligible.Add(eligible).Sub(l)).Mul(half)
	}
	return ineligible.Sub(l).Add(eligible.Mul(half))
}
