// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package engine turns per-token streams of classified transactions into a
// ledger of taxable events, matching disposals against acquisition lots
// first-in, first-out.
//
// The engine holds no global state, never prints and never prompts. Missing
// acquisition history is requested through a ShortfallResolver.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/amyandpotatoes/aus-crypto-tax-calc/fy"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/ledger"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/lot"
)

// DefaultMaxShortfallAttempts bounds how often the resolver is asked about a
// single disposal.
const DefaultMaxShortfallAttempts = 3

// Engine processes transactions for the window [start, end]. Transactions
// outside the window still move lots but produce no ledger rows.
// Financial years and holding periods are evaluated in start's location;
// transaction times are converted to it on intake.
// An Engine must not be used from several goroutines at once; use Run with
// WithWorkers to process tokens in parallel.
type Engine struct {
	start, end  time.Time
	loc         *time.Location
	resolver    ShortfallResolver
	logger      *slog.Logger
	workers     int
	sortIntake  bool
	maxAttempts int

	tokens     map[TokenID]*tokenState
	ledger     *ledger.Ledger
	unresolved []*ShortfallError
}

// tokenState is owned by whichever goroutine processes the token.
type tokenState struct {
	book *lot.Book
	last time.Time
	seq  int
}

type Option func(*Engine)

// WithResolver sets the hook asked to cover lot shortfalls. Without one,
// every shortfall stays unresolved.
func WithResolver(r ShortfallResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithWorkers lets Run process up to n tokens concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithSortIntake makes the engine stable-sort each token's stream by time
// once, on intake, instead of rejecting out-of-order input.
func WithSortIntake() Option {
	return func(e *Engine) { e.sortIntake = true }
}

func WithMaxShortfallAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// New creates an engine with an empty ledger bucket for every financial year
// spanned by [start, end].
func New(start, end time.Time, opts ...Option) (*Engine, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidDateRange, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	loc := start.Location()
	end = end.In(loc)
	e := &Engine{
		start:       start,
		end:         end,
		loc:         loc,
		resolver:    abstain,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers:     1,
		maxAttempts: DefaultMaxShortfallAttempts,
		tokens:      make(map[TokenID]*tokenState),
		ledger:      ledger.New(start, end),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) state(token TokenID) *tokenState {
	st, ok := e.tokens[token]
	if !ok {
		st = &tokenState{book: lot.NewBook()}
		e.tokens[token] = st
	}
	return st
}

// Process feeds one token's transactions, in time order, to the engine. It
// may be called repeatedly for the same token with later transactions.
// An invalid transaction stops the stream; everything before it is kept.
func (e *Engine) Process(ctx context.Context, token TokenID, txs []Transaction) error {
	shard := ledger.NewForYears(e.ledger.Years())
	unresolved, err := e.processStream(ctx, token, e.state(token), txs, shard)
	e.unresolved = append(e.unresolved, unresolved...)
	if mergeErr := e.ledger.Merge(shard); mergeErr != nil {
		return errors.Join(err, mergeErr)
	}
	return err
}

// Run processes a whole transaction bank. Tokens are independent: a failure
// in one token's stream is reported in the joined error while the others
// complete. With WithWorkers(n) up to n tokens run concurrently, each
// writing to its own ledger shard; shards are merged in token order.
func (e *Engine) Run(ctx context.Context, bank map[TokenID][]Transaction) (*Result, error) {
	tokens := make([]TokenID, 0, len(bank))
	for tok := range bank {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].String() < tokens[j].String() })

	years := e.ledger.Years()
	states := make([]*tokenState, len(tokens))
	shards := make([]*ledger.Ledger, len(tokens))
	unresolved := make([][]*ShortfallError, len(tokens))
	errs := make([]error, len(tokens))
	for i, tok := range tokens {
		states[i] = e.state(tok)
		shards[i] = ledger.NewForYears(years)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, tok := range tokens {
		i, tok := i, tok
		g.Go(func() error {
			unresolved[i], errs[i] = e.processStream(gctx, tok, states[i], bank[tok], shards[i])
			if err := gctx.Err(); err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range tokens {
		if err := e.ledger.Merge(shards[i]); err != nil {
			errs[i] = errors.Join(errs[i], err)
		}
		e.unresolved = append(e.unresolved, unresolved[i]...)
	}
	return e.Result(), errors.Join(errs...)
}

// Result snapshots the ledger, open holdings and unresolved shortfalls.
func (e *Engine) Result() *Result {
	holdings := make(map[TokenID][]lot.Lot, len(e.tokens))
	for tok, st := range e.tokens {
		if st.book.Len() > 0 {
			holdings[tok] = st.book.Lots()
		}
	}
	return &Result{
		Ledger:     e.ledger,
		Holdings:   holdings,
		Unresolved: append([]*ShortfallError(nil), e.unresolved...),
	}
}

func (e *Engine) inWindow(t time.Time) bool {
	return !t.Before(e.start) && !t.After(e.end)
}

func (e *Engine) processStream(ctx context.Context, token TokenID, st *tokenState, txs []Transaction, shard *ledger.Ledger) ([]*ShortfallError, error) {
	if e.sortIntake {
		txs = append([]Transaction(nil), txs...)
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].Time.Before(txs[j].Time) })
	}
	var unresolved []*ShortfallError
	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			return unresolved, err
		}
		tx.Time = tx.Time.In(e.loc)
		if err := e.check(token, st, tx); err != nil {
			return unresolved, &TransactionError{Token: token, Index: i, Time: tx.Time, Err: err}
		}
		st.last = tx.Time
		st.seq++

		var err error
		switch tx.Kind {
		case Acquire:
			st.book.Add(lot.New(token.String(), tx.Time, tx.AdjustedPrice, tx.Price, tx.Volume))
			e.logger.Debug("acquire", "token", token.String(), "time", tx.Time, "volume", tx.Volume.String(), "cost", tx.AdjustedPrice.String())
		case Income:
			err = e.income(token, st, tx, shard)
		case Dispose, Loss:
			var short *ShortfallError
			short, err = e.dispose(ctx, token, st, tx, shard)
			if short != nil {
				unresolved = append(unresolved, short)
			}
		}
		if err != nil {
			return unresolved, &TransactionError{Token: token, Index: i, Time: tx.Time, Err: err}
		}
	}
	return unresolved, nil
}

func (e *Engine) check(token TokenID, st *tokenState, tx Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.Token != token {
		return fmt.Errorf("%w: token %s in the stream of %s", ErrInvalidTransaction, tx.Token, token)
	}
	if tx.Time.Before(st.last) {
		return fmt.Errorf("%w: time %s is before previous %s", ErrInvalidTransaction, tx.Time.Format(time.RFC3339), st.last.Format(time.RFC3339))
	}
	return nil
}

// income records the market value received and opens a lot for it at the
// fee-adjusted price.
func (e *Engine) income(token TokenID, st *tokenState, tx Transaction, shard *ledger.Ledger) error {
	if e.inWindow(tx.Time) {
		if err := e.recordIncome(token, st, tx, shard); err != nil {
			return err
		}
	}
	st.book.Add(lot.New(token.String(), tx.Time, tx.AdjustedPrice, tx.Price, tx.Volume))
	return nil
}

func (e *Engine) recordIncome(token TokenID, st *tokenState, tx Transaction, shard *ledger.Ledger) error {
	amount := tx.Price.Mul(tx.Volume)
	e.logger.Debug("income", "token", token.String(), "time", tx.Time, "volume", tx.Volume.String(), "amount", amount.String())
	return shard.Record(ledger.GainEvent{
		ID:        ledger.EventID(fmt.Sprintf("%s|%d|%d|income", token, st.seq, tx.Time.UnixNano())),
		Time:      tx.Time,
		Token:     token.String(),
		Kind:      ledger.Income,
		CostBasis: decimal.Zero,
		Price:     tx.Price,
		Volume:    tx.Volume,
		Amount:    amount,
	})
}

// dispose matches tx against the token's lots and records one capital gain
// or loss per matched lot. A shortfall that the resolver cannot cover is
// returned and left out of the ledger.
func (e *Engine) dispose(ctx context.Context, token TokenID, st *tokenState, tx Transaction, shard *ledger.Ledger) (*ShortfallError, error) {
	inWindow := e.inWindow(tx.Time)
	if inWindow && !shard.Covers(tx.Time) {
		// Checked before any lot is consumed, so a failure leaves the book intact.
		return nil, fmt.Errorf("%w: disposal of %s at %s", ledger.ErrYearOutOfRange, token, tx.Time.Format(time.RFC3339))
	}
	trail, unmatched := st.book.Consume(tx.Volume)

	var short *ShortfallError
	if unmatched.IsPositive() {
		if !inWindow {
			// Synthetic lots never enter the book, so nothing later depends on them.
			e.logger.Debug("shortfall outside window", "token", token.String(), "time", tx.Time, "unmatched", unmatched.String())
			return &ShortfallError{Token: token, Time: tx.Time, Unmatched: unmatched, Err: ErrOutsideWindow}, nil
		}
		var extra []lot.Consumption
		extra, short = e.resolveShortfall(ctx, token, unmatched, tx.Time)
		trail = append(trail, extra...)
	}
	if !inWindow {
		return nil, nil
	}

	price := tx.AdjustedPrice
	if tx.Kind == Loss {
		price = decimal.Zero
	}
	for j, c := range trail {
		var amount decimal.Decimal
		if tx.Kind == Loss {
			amount = c.CostBasis.Mul(c.Volume).Neg()
		} else {
			amount = tx.AdjustedPrice.Sub(c.CostBasis).Mul(c.Volume)
		}
		acquired := c.AcquiredAt
		ev := ledger.GainEvent{
			ID:         ledger.EventID(fmt.Sprintf("%s|%d|%d|%d|%d", token, st.seq, tx.Time.UnixNano(), j, acquired.UnixNano())),
			Time:       tx.Time,
			Token:      token.String(),
			Kind:       ledger.CapitalGain,
			AcquiredAt: &acquired,
			CostBasis:  c.CostBasis,
			Price:      price,
			Volume:     c.Volume,
			Discount:   fy.DiscountEligible(acquired, tx.Time),
			Amount:     amount,
		}
		e.logger.Debug(tx.Kind.String(), "token", ev.Token, "time", ev.Time, "volume", ev.Volume.String(),
			"acquired", acquired, "amount", ev.Amount.String(), "discount", ev.Discount)
		if err := shard.Record(ev); err != nil {
			return short, err
		}
	}
	return short, nil
}

// resolveShortfall asks the resolver for lots covering unmatched. The
// returned consumptions cover what was resolved; a non-nil ShortfallError
// carries whatever remains.
func (e *Engine) resolveShortfall(ctx context.Context, token TokenID, unmatched decimal.Decimal, at time.Time) ([]lot.Consumption, *ShortfallError) {
	var trail []lot.Consumption
	var lastErr error
	remaining := unmatched
	attempts := 0
	for ; attempts < e.maxAttempts && remaining.IsPositive(); attempts++ {
		s, err := e.resolver.ResolveShortfall(ctx, token, remaining, at)
		if err != nil {
			lastErr = err
			break
		}
		if !s.Volume.IsPositive() {
			lastErr = fmt.Errorf("%w: synthetic lot volume %s", ErrInvalidTransaction, s.Volume)
			continue
		}
		s.AcquiredAt = s.AcquiredAt.In(e.loc)
		if s.AcquiredAt.After(at) {
			lastErr = fmt.Errorf("%w: synthetic lot acquired at %s after disposal", ErrInvalidTransaction, s.AcquiredAt.Format(time.RFC3339))
			continue
		}
		use := decimal.Min(s.Volume, remaining)
		trail = append(trail, lot.Consumption{
			AcquiredAt: s.AcquiredAt,
			CostBasis:  s.CostBasis,
			Volume:     use,
			Partial:    use.LessThan(s.Volume),
		})
		remaining = remaining.Sub(use)
	}
	if !remaining.IsPositive() {
		return trail, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("gave up after %d attempts", attempts)
	}
	e.logger.Warn("unresolved shortfall", "token", token.String(), "time", at, "unmatched", remaining.String(), "error", lastErr)
	return trail, &ShortfallError{Token: token, Time: at, Unmatched: remaining, Err: lastErr}
}

// Result is the outcome of a run.
type Result struct {
	Ledger     *ledger.Ledger
	Holdings   map[TokenID][]lot.Lot
	Unresolved []*ShortfallError
}

// Summaries aggregates every financial year of the run.
func (r *Result) Summaries() []ledger.YearSummary {
	return r.Ledger.Summaries()
}

// Bank groups transactions by token, keeping their relative order.
func Bank(txs []Transaction) map[TokenID][]Transaction {
	bank := make(map[TokenID][]Transaction)
	for _, tx := range txs {
		bank[tx.Token] = append(bank[tx.Token], tx)
	}
	return bank
}
