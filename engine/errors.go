// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Input errors abort the stream of the token they occur in.
var (
	// ErrInvalidTransaction covers non-positive volumes, unknown kinds and
	// timestamps that go backwards within a token's stream.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrArithmeticDegenerate is a division by a zero total, e.g. splitting a
	// fee across legs whose values sum to zero.
	ErrArithmeticDegenerate = fmt.Errorf("%w: division by zero total", ErrInvalidTransaction)

	// ErrInvalidDateRange indicates that the reporting window ends before it starts.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Shortfall errors affect a single disposal.
var (
	// ErrLotShortfall indicates a disposal larger than the known holdings.
	ErrLotShortfall = errors.New("lot shortfall")

	// ErrNoShortfallData is returned by a ShortfallResolver that has nothing
	// to offer for the requested disposal.
	ErrNoShortfallData = errors.New("no data to resolve shortfall")

	// ErrOutsideWindow marks a shortfall on a disposal before or after the
	// reporting window. The resolver is not asked about it.
	ErrOutsideWindow = errors.New("disposal outside the reporting window")
)

// TransactionError locates an invalid transaction in its token's stream.
type TransactionError struct {
	Token TokenID
	Index int
	Time  time.Time
	Err   error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s transaction %d at %s: %v", e.Token, e.Index, e.Time.Format(time.RFC3339), e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// ShortfallError describes a disposal that could not be matched in full.
type ShortfallError struct {
	Token     TokenID
	Time      time.Time
	Unmatched decimal.Decimal
	Err       error // why it stayed unresolved, may be nil
}

func (e *ShortfallError) Error() string {
	msg := fmt.Sprintf("%s: %s at %s: %s units unmatched", ErrLotShortfall, e.Token, e.Time.Format(time.RFC3339), e.Unmatched)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ShortfallError) Is(target error) bool { return target == ErrLotShortfall }

func (e *ShortfallError) Unwrap() error { return e.Err }
