// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package lot holds acquisition lots for a single token and consumes them
// first-in, first-out when the token is disposed of.
package lot

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one acquisition of a token. Lots are values: a partially consumed
// lot is replaced in its Book by a smaller copy.
type Lot struct {
	Token      string
	AcquiredAt time.Time
	CostBasis  decimal.Decimal // fee-adjusted cost per unit
	Price      decimal.Decimal // raw market price per unit, kept for reports
	Volume     decimal.Decimal // remaining volume

	seq uint64 // insertion order, breaks AcquiredAt ties
}

// New builds a lot. The insertion sequence is assigned by Book.Add.
func New(token string, acquiredAt time.Time, costBasis, price, volume decimal.Decimal) Lot {
	return Lot{
		Token:      token,
		AcquiredAt: acquiredAt,
		CostBasis:  costBasis,
		Price:      price,
		Volume:     volume,
	}
}

// WithVolume returns a copy of l holding v units.
func (l Lot) WithVolume(v decimal.Decimal) Lot {
	l.Volume = v
	return l
}

// TotalCost is CostBasis * Volume.
func (l Lot) TotalCost() decimal.Decimal {
	return l.CostBasis.Mul(l.Volume)
}

// before orders lots by acquisition time, then by insertion order.
func (l Lot) before(o Lot) bool {
	if !l.AcquiredAt.Equal(o.AcquiredAt) {
		return l.AcquiredAt.Before(o.AcquiredAt)
	}
	return l.seq < o.seq
}

// Consumption is one line of the audit trail produced by Book.Consume.
type Consumption struct {
	AcquiredAt time.Time
	CostBasis  decimal.Decimal
	Volume     decimal.Decimal
	Partial    bool // the lot stayed in the book with a reduced volume
}

// Synthetic is a caller-supplied lot used to cover a shortfall. It is
// matched once and never enters a Book.
type Synthetic struct {
	AcquiredAt time.Time
	CostBasis  decimal.Decimal
	Volume     decimal.Decimal
}
