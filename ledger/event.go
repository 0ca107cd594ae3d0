// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind separates ordinary income from capital gains and losses.
type EventKind int

const (
	Income EventKind = iota + 1
	CapitalGain
)

func (k EventKind) String() string {
	switch k {
	case Income:
		return "Income"
	case CapitalGain:
		return "Capital Gain"
	}
	return "Unknown"
}

// GainEvent is one taxable consequence of a transaction. Amount is signed:
// positive for income and gains, negative for losses.
type GainEvent struct {
	ID         string
	Time       time.Time
	Token      string
	Kind       EventKind
	AcquiredAt *time.Time // nil for Income
	CostBasis  decimal.Decimal
	Price      decimal.Decimal // disposal or realisation price per unit
	Volume     decimal.Decimal
	Discount   bool
	Amount     decimal.Decimal
}

// IsLoss reports whether the event is a capital loss.
func (e GainEvent) IsLoss() bool {
	return e.Kind == CapitalGain && e.Amount.IsNegative()
}

var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/amyandpotatoes/aus-crypto-tax-calc/gain-event"))

// EventID derives a stable identifier from key, so reprocessing the same
// transactions yields the same IDs.
func EventID(key string) string {
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}
