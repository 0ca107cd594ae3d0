// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amyandpotatoes/aus-crypto-tax-calc/lot"
)

// ShortfallResolver supplies the missing acquisition history when a disposal
// exceeds the known lots. The returned lot is matched once and then
// discarded; if it covers less than unmatched the resolver is asked again
// for the rest. Return ErrNoShortfallData (or any error) to abstain.
// Implementations must be safe for concurrent use when the engine runs with
// more than one worker.
type ShortfallResolver interface {
	ResolveShortfall(ctx context.Context, token TokenID, unmatched decimal.Decimal, disposedAt time.Time) (lot.Synthetic, error)
}

// ResolverFunc adapts a function to ShortfallResolver.
type ResolverFunc func(ctx context.Context, token TokenID, unmatched decimal.Decimal, disposedAt time.Time) (lot.Synthetic, error)

func (f ResolverFunc) ResolveShortfall(ctx context.Context, token TokenID, unmatched decimal.Decimal, disposedAt time.Time) (lot.Synthetic, error) {
	return f(ctx, token, unmatched, disposedAt)
}

// abstain is the resolver used when none is configured.
var abstain = ResolverFunc(func(context.Context, TokenID, decimal.Decimal, time.Time) (lot.Synthetic, error) {
	return lot.Synthetic{}, ErrNoShortfallData
})

type overrideKey struct {
	token TokenID
	at    int64 // unix nanos of the disposal, 0 for any disposal of token
}

// OverrideTable is a batch resolver fed from a pre-supplied list of lots.
// Each row is handed out once. Rows registered for an exact disposal time
// are used before rows registered for the token as a whole.
type OverrideTable struct {
	mu   sync.Mutex
	rows map[overrideKey][]lot.Synthetic
}

func NewOverrideTable() *OverrideTable {
	return &OverrideTable{rows: make(map[overrideKey][]lot.Synthetic)}
}

// Add registers a lot for the disposal of token at disposedAt. A zero
// disposedAt makes the row available to any disposal of token.
func (t *OverrideTable) Add(token TokenID, disposedAt time.Time, s lot.Synthetic) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := overrideKey{token: token}
	if !disposedAt.IsZero() {
		k.at = disposedAt.UnixNano()
	}
	t.rows[k] = append(t.rows[k], s)
}

// Len is the number of rows not yet handed out.
func (t *OverrideTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.rows {
		n += len(r)
	}
	return n
}

func (t *OverrideTable) ResolveShortfall(_ context.Context, token TokenID, _ decimal.Decimal, disposedAt time.Time) (lot.Synthetic, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range []overrideKey{{token: token, at: disposedAt.UnixNano()}, {token: token}} {
		rows := t.rows[k]
		if len(rows) == 0 {
			continue
		}
		t.rows[k] = rows[1:]
		return rows[0], nil
	}
	return lot.Synthetic{}, ErrNoShortfallData
}

// promptTimeLayout is the format PromptResolver expects for acquisition times.
const promptTimeLayout = "2006-01-02 15:04:05"

// PromptResolver asks a person for the missing lot. Questions go to out and
// answers are read line by line from in. An empty answer abstains.
type PromptResolver struct {
	mu  sync.Mutex
	in  *bufio.Scanner
	out io.Writer
}

func NewPromptResolver(in io.Reader, out io.Writer) *PromptResolver {
	return &PromptResolver{in: bufio.NewScanner(in), out: out}
}

func (p *PromptResolver) ResolveShortfall(ctx context.Context, token TokenID, unmatched decimal.Decimal, disposedAt time.Time) (lot.Synthetic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "Disposal of %s %s at %s exceeds known holdings.\n", unmatched, token, disposedAt.Format(promptTimeLayout))
	acquired, err := p.ask(ctx, "Acquisition time (YYYY-MM-DD HH:MM:SS, empty to skip): ", func(s string) (any, error) {
		return time.ParseInLocation(promptTimeLayout, s, disposedAt.Location())
	})
	if err != nil {
		return lot.Synthetic{}, err
	}
	cost, err := p.ask(ctx, "Cost basis per unit: ", parseDecimalAnswer)
	if err != nil {
		return lot.Synthetic{}, err
	}
	volume, err := p.ask(ctx, fmt.Sprintf("Volume (up to %s): ", unmatched), parseDecimalAnswer)
	if err != nil {
		return lot.Synthetic{}, err
	}
	return lot.Synthetic{
		AcquiredAt: acquired.(time.Time),
		CostBasis:  cost.(decimal.Decimal),
		Volume:     volume.(decimal.Decimal),
	}, nil
}

// ask repeats question until parse accepts the answer, like a console form.
func (p *PromptResolver) ask(ctx context.Context, question string, parse func(string) (any, error)) (any, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprint(p.out, question)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return nil, err
			}
			return nil, ErrNoShortfallData
		}
		answer := strings.TrimSpace(p.in.Text())
		if answer == "" {
			return nil, ErrNoShortfallData
		}
		v, err := parse(answer)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(p.out, "Invalid input, please make sure it matches the type required.")
	}
}

func parseDecimalAnswer(s string) (any, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if v.IsNegative() {
		return nil, fmt.Errorf("negative value %s", s)
	}
	return v, nil
}
