// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the tax treatment of a transaction, decided upstream.
type Kind int

const (
	Acquire Kind = iota + 1
	Dispose
	Income
	Loss // involuntary disposal for no consideration
)

func (k Kind) String() string {
	switch k {
	case Acquire:
		return "acquire"
	case Dispose:
		return "dispose"
	case Income:
		return "income"
	case Loss:
		return "loss"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the names produced by Kind.String plus the buy/sell/gain
// aliases used by classifiers.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "acquire", "buy":
		return Acquire, nil
	case "dispose", "sell":
		return Dispose, nil
	case "income", "gain", "reward", "staking":
		return Income, nil
	case "loss":
		return Loss, nil
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, s)
}

func (k Kind) valid() bool {
	return k >= Acquire && k <= Loss
}

// TokenID names a token. Plain tokens use only Ticker; liquidity-pool and
// other contract-specific tokens also carry the contract address, since
// many pools share one ticker.
type TokenID struct {
	Ticker   string
	Contract string
}

func Ticker(ticker string) TokenID {
	return TokenID{Ticker: strings.TrimSpace(ticker)}
}

func Composite(ticker, contract string) TokenID {
	return TokenID{
		Ticker:   strings.TrimSpace(ticker),
		Contract: strings.ToLower(strings.TrimSpace(contract)),
	}
}

func (id TokenID) IsComposite() bool {
	return id.Contract != ""
}

func (id TokenID) String() string {
	if id.IsComposite() {
		return id.Ticker + "@" + id.Contract
	}
	return id.Ticker
}

// Transaction is one classified and priced movement of a single token.
// Fee is per unit. AdjustedPrice already includes the fee (added on
// acquisition, subtracted on disposal) and is never recomputed here.
type Transaction struct {
	Time          time.Time
	Kind          Kind
	Token         TokenID
	Volume        decimal.Decimal
	Fee           decimal.Decimal
	Price         decimal.Decimal
	AdjustedPrice decimal.Decimal
}

// NewTransaction builds a Transaction from a fee charged for the whole
// transaction, converting it to a per-unit fee.
func NewTransaction(at time.Time, kind Kind, token TokenID, volume, totalFee, price, adjustedPrice decimal.Decimal) (Transaction, error) {
	if volume.IsZero() {
		return Transaction{}, fmt.Errorf("%w: fee per unit of %s at %s", ErrArithmeticDegenerate, token, at.Format(time.RFC3339))
	}
	tx := Transaction{
		Time:          at,
		Kind:          kind,
		Token:         token,
		Volume:        volume,
		Fee:           totalFee.Div(volume),
		Price:         price,
		AdjustedPrice: adjustedPrice,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Validate checks the invariants the engine relies on.
func (tx Transaction) Validate() error {
	if !tx.Kind.valid() {
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidTransaction, tx.Kind)
	}
	if !tx.Volume.IsPositive() {
		return fmt.Errorf("%w: volume must be positive, got %s", ErrInvalidTransaction, tx.Volume)
	}
	if tx.Time.IsZero() {
		return fmt.Errorf("%w: missing time", ErrInvalidTransaction)
	}
	return nil
}
