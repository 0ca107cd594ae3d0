// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Split apportions total across legs in proportion to weights, e.g. a gas
// fee across the tokens of one swap weighted by their market value. The last
// share absorbs rounding so the shares always add up to total.
func Split(total decimal.Decimal, weights []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no legs to split %s across", ErrArithmeticDegenerate, total)
	}
	sum := decimal.Zero
	for i, w := range weights {
		if w.IsNegative() {
			return nil, fmt.Errorf("%w: negative weight %s for leg %d", ErrInvalidTransaction, w, i)
		}
		sum = sum.Add(w)
	}
	if sum.IsZero() {
		return nil, fmt.Errorf("%w: legs sum to zero", ErrArithmeticDegenerate)
	}
	shares := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights[:len(weights)-1] {
		shares[i] = total.Mul(w).Div(sum)
		allocated = allocated.Add(shares[i])
	}
	shares[len(shares)-1] = total.Sub(allocated)
	return shares, nil
}
