// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amyandpotatoes/aus-crypto-tax-calc/fy"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/ledger"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/lot"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

// tx builds a transaction whose fee-adjusted price equals its raw price.
func tx(at time.Time, kind Kind, token TokenID, volume, price string) Transaction {
	return Transaction{
		Time:          at,
		Kind:          kind,
		Token:         token,
		Volume:        d(volume),
		Fee:           decimal.Zero,
		Price:         d(price),
		AdjustedPrice: d(price),
	}
}

func newEngine(t *testing.T, start, end time.Time, opts ...Option) *Engine {
	t.Helper()
	e, err := New(start, end, opts...)
	require.NoError(t, err)
	return e
}

func eventsOf(r *Result) []ledger.GainEvent {
	var out []ledger.GainEvent
	for _, y := range r.Ledger.Years() {
		out = append(out, r.Ledger.Events(y)...)
	}
	return out
}

func TestNew_InvalidDateRange(t *testing.T) {
	_, err := New(day(2022, 1, 1), day(2021, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestRun_EndToEndDiscountedGain(t *testing.T) {
	btc := Ticker("BTC")
	e := newEngine(t, day(2020, 1, 1), day(2021, 6, 30))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		btc: {
			tx(day(2020, 1, 1), Acquire, btc, "10", "1.0"),
			tx(day(2021, 2, 1), Dispose, btc, "10", "5.0"),
		},
	})
	require.NoError(t, err)

	evs := eventsOf(res)
	require.Len(t, evs, 1)
	ev := evs[0]
	assert.Equal(t, ledger.CapitalGain, ev.Kind)
	assert.True(t, ev.Amount.Equal(d("40")), "got %s", ev.Amount)
	assert.True(t, ev.Discount)
	require.NotNil(t, ev.AcquiredAt)
	assert.True(t, ev.AcquiredAt.Equal(day(2020, 1, 1)))
	assert.NotEmpty(t, ev.ID)

	s := res.Ledger.Summary(fy.Year{StartYear: 2020})
	assert.True(t, s.DiscountEligible.Equal(d("40")))
	assert.True(t, s.NetCapitalGains.Equal(d("20")), "got %s", s.NetCapitalGains)

	assert.Empty(t, res.Holdings)
	assert.Empty(t, res.Unresolved)
	assert.Len(t, res.Summaries(), 2, "2019-20FY has no activity but still appears")
}

func TestRun_FIFOAcrossLots(t *testing.T) {
	eth := Ticker("ETH")
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		eth: {
			tx(day(2021, 7, 1), Acquire, eth, "2", "100"),
			tx(day(2021, 8, 1), Acquire, eth, "4", "300"),
			tx(day(2021, 9, 1), Acquire, eth, "1", "50"),
			tx(day(2021, 10, 1), Dispose, eth, "4", "200"),
		},
	})
	require.NoError(t, err)

	evs := eventsOf(res)
	require.Len(t, evs, 2)
	assert.True(t, evs[0].Amount.Equal(d("200")), "lot1: (200-100)*2")
	assert.True(t, evs[1].Amount.Equal(d("-200")), "half of lot2: (200-300)*2")
	assert.False(t, evs[0].Discount)

	open := res.Holdings[eth]
	require.Len(t, open, 2)
	assert.True(t, open[0].Volume.Equal(d("2")))
	assert.True(t, open[0].CostBasis.Equal(d("300")))
	assert.True(t, open[1].Volume.Equal(d("1")))

	s := res.Ledger.Summary(fy.Year{StartYear: 2021})
	assert.True(t, s.Losses.Equal(d("-200")))
	assert.True(t, s.NetCapitalGains.IsZero())
}

func TestRun_UsesFeeAdjustedPrices(t *testing.T) {
	sol := Ticker("SOL")
	e := newEngine(t, day(2022, 7, 1), day(2023, 6, 30))
	buy := tx(day(2022, 7, 2), Acquire, sol, "10", "20")
	buy.AdjustedPrice = d("20.5")
	sell := tx(day(2022, 8, 2), Dispose, sol, "10", "30")
	sell.AdjustedPrice = d("29.5")

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{sol: {buy, sell}})
	require.NoError(t, err)

	evs := eventsOf(res)
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Amount.Equal(d("90")), "got %s", evs[0].Amount)
	assert.True(t, evs[0].CostBasis.Equal(d("20.5")))
	assert.True(t, evs[0].Price.Equal(d("29.5")))
}

func TestRun_IncomeOpensLotAtAdjustedPrice(t *testing.T) {
	atom := Ticker("ATOM")
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30))
	reward := tx(day(2021, 7, 10), Income, atom, "3", "10")
	reward.AdjustedPrice = d("10.2")

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		atom: {reward, tx(day(2021, 12, 1), Dispose, atom, "3", "12")},
	})
	require.NoError(t, err)

	evs := eventsOf(res)
	require.Len(t, evs, 2)
	assert.Equal(t, ledger.Income, evs[0].Kind)
	assert.Nil(t, evs[0].AcquiredAt)
	assert.False(t, evs[0].Discount)
	assert.True(t, evs[0].Amount.Equal(d("30")))
	assert.True(t, evs[1].Amount.Equal(d("5.4")), "(12-10.2)*3, got %s", evs[1].Amount)

	s := res.Ledger.Summary(fy.Year{StartYear: 2021})
	assert.True(t, s.Income.Equal(d("30")))
	assert.True(t, s.NetCapitalGains.Equal(d("5.4")))
}

func TestRun_LossWritesOffCostBasis(t *testing.T) {
	luna := Ticker("LUNA")
	e := newEngine(t, day(2020, 7, 1), day(2022, 6, 30))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		luna: {
			tx(day(2020, 8, 1), Acquire, luna, "100", "2"),
			tx(day(2021, 3, 1), Acquire, luna, "50", "8"),
			tx(day(2022, 5, 12), Loss, luna, "150", "0"),
		},
	})
	require.NoError(t, err)

	evs := eventsOf(res)
	require.Len(t, evs, 2)
	assert.True(t, evs[0].Amount.Equal(d("-200")))
	assert.True(t, evs[0].Discount)
	assert.True(t, evs[0].Price.IsZero())
	assert.True(t, evs[1].Amount.Equal(d("-400")))
	assert.True(t, evs[1].Discount)

	s := res.Ledger.Summary(fy.Year{StartYear: 2021})
	assert.True(t, s.Losses.Equal(d("-600")))
	assert.True(t, s.NetCapitalGains.IsZero())
}

func TestRun_DiscountBoundary(t *testing.T) {
	ada := Ticker("ADA")
	acquired := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	exactly := acquired.AddDate(0, 0, 365)
	e := newEngine(t, day(2020, 7, 1), day(2023, 6, 30))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		ada: {
			tx(acquired, Acquire, ada, "2", "1"),
			tx(exactly, Dispose, ada, "1", "2"),
			tx(exactly.Add(time.Microsecond), Dispose, ada, "1", "2"),
		},
	})
	require.NoError(t, err)

	evs := eventsOf(res)
	require.Len(t, evs, 2)
	assert.False(t, evs[0].Discount, "exactly 12 months")
	assert.True(t, evs[1].Discount, "12 months and a microsecond")
}

func TestRun_ShortfallHookCalledOnce(t *testing.T) {
	dot := Ticker("DOT")
	var calls int
	var asked decimal.Decimal
	resolver := ResolverFunc(func(_ context.Context, token TokenID, unmatched decimal.Decimal, at time.Time) (lot.Synthetic, error) {
		calls++
		asked = unmatched
		assert.Equal(t, dot, token)
		return lot.Synthetic{AcquiredAt: day(2019, 1, 1), CostBasis: d("2"), Volume: unmatched}, nil
	})
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30), WithResolver(resolver))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		dot: {
			tx(day(2021, 7, 1), Acquire, dot, "6", "5"),
			tx(day(2021, 9, 1), Dispose, dot, "10", "7"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.True(t, asked.Equal(d("4")), "got %s", asked)
	assert.Empty(t, res.Unresolved)

	evs := eventsOf(res)
	require.Len(t, evs, 2)
	assert.True(t, evs[0].Amount.Equal(d("12")), "(7-5)*6")
	assert.True(t, evs[1].Amount.Equal(d("20")), "(7-2)*4")
	assert.True(t, evs[1].Discount)
	assert.Empty(t, res.Holdings, "synthetic lots never enter the book")
}

func TestRun_ShortfallAskedAgainForRemainder(t *testing.T) {
	dot := Ticker("DOT")
	var asked []string
	resolver := ResolverFunc(func(_ context.Context, _ TokenID, unmatched decimal.Decimal, _ time.Time) (lot.Synthetic, error) {
		asked = append(asked, unmatched.String())
		return lot.Synthetic{AcquiredAt: day(2020, 1, 1), CostBasis: d("1"), Volume: d("1")}, nil
	})
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30), WithResolver(resolver), WithMaxShortfallAttempts(3))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		dot: {tx(day(2021, 9, 1), Dispose, dot, "4", "3")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"4", "3", "2"}, asked)
	require.Len(t, res.Unresolved, 1)
	assert.True(t, res.Unresolved[0].Unmatched.Equal(d("1")))
	assert.Len(t, eventsOf(res), 3)
}

func TestRun_UnresolvedShortfallLeftOutOfLedger(t *testing.T) {
	dot := Ticker("DOT")
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		dot: {
			tx(day(2021, 7, 1), Acquire, dot, "6", "5"),
			tx(day(2021, 9, 1), Dispose, dot, "10", "7"),
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Unresolved, 1)
	short := res.Unresolved[0]
	assert.True(t, short.Unmatched.Equal(d("4")))
	assert.Equal(t, dot, short.Token)
	assert.True(t, errors.Is(short, ErrLotShortfall))
	assert.True(t, errors.Is(short, ErrNoShortfallData))

	evs := eventsOf(res)
	require.Len(t, evs, 1, "only the matched part is recorded")
	assert.True(t, evs[0].Volume.Equal(d("6")))
}

func TestRun_ResolverRejectsFutureLot(t *testing.T) {
	dot := Ticker("DOT")
	resolver := ResolverFunc(func(context.Context, TokenID, decimal.Decimal, time.Time) (lot.Synthetic, error) {
		return lot.Synthetic{AcquiredAt: day(2030, 1, 1), CostBasis: d("1"), Volume: d("5")}, nil
	})
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30), WithResolver(resolver), WithMaxShortfallAttempts(2))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		dot: {tx(day(2021, 9, 1), Dispose, dot, "1", "3")},
	})
	require.NoError(t, err)
	require.Len(t, res.Unresolved, 1)
	assert.ErrorIs(t, res.Unresolved[0], ErrInvalidTransaction)
	assert.Empty(t, eventsOf(res))
}

func TestRun_WindowKeepsEarlierLots(t *testing.T) {
	btc := Ticker("BTC")
	var calls int
	resolver := ResolverFunc(func(context.Context, TokenID, decimal.Decimal, time.Time) (lot.Synthetic, error) {
		calls++
		return lot.Synthetic{}, ErrNoShortfallData
	})
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30), WithResolver(resolver))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		btc: {
			tx(day(2018, 1, 1), Acquire, btc, "3", "10000"),
			tx(day(2019, 1, 1), Dispose, btc, "1", "4000"),
			tx(day(2019, 2, 1), Income, btc, "1", "5000"),
			tx(day(2020, 1, 1), Dispose, btc, "9", "8000"), // shortfall before the window
			tx(day(2020, 3, 1), Acquire, btc, "2", "30000"),
			tx(day(2021, 8, 1), Dispose, btc, "1", "40000"),
			tx(day(2022, 8, 1), Dispose, btc, "1", "20000"),
		},
	})
	require.NoError(t, err)

	assert.Zero(t, calls, "no resolver call for out-of-window disposals")
	evs := eventsOf(res)
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Amount.Equal(d("10000")))
	assert.True(t, evs[0].Discount)
	assert.Empty(t, res.Holdings)

	require.Len(t, res.Unresolved, 1)
	short := res.Unresolved[0]
	assert.ErrorIs(t, short, ErrLotShortfall)
	assert.ErrorIs(t, short, ErrOutsideWindow)
	assert.True(t, short.Unmatched.Equal(d("6")))
	assert.True(t, short.Time.Equal(day(2020, 1, 1)))
}

func TestRun_MixedOffsetsUseWindowLocation(t *testing.T) {
	sydney := time.FixedZone("AEST", 10*60*60)
	eth := Ticker("ETH")
	e := newEngine(t,
		time.Date(2021, 7, 1, 0, 0, 0, 0, sydney),
		time.Date(2022, 6, 30, 23, 59, 59, 0, sydney))

	// 2021-06-30T20:00Z is 06:00 on 1 July in Sydney: the first day of 2021-22.
	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		eth: {
			tx(time.Date(2021, 6, 30, 20, 0, 0, 0, time.UTC), Income, eth, "1", "2000"),
			tx(time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC), Acquire, eth, "1", "3000"),
			// 2022-06-30T15:00Z is already 1 July 2022 in Sydney, past the window.
			tx(time.Date(2022, 6, 30, 15, 0, 0, 0, time.UTC), Dispose, eth, "1", "4000"),
		},
	})
	require.NoError(t, err)

	years := res.Ledger.Years()
	require.Len(t, years, 1)
	assert.Equal(t, "2021-22FY", years[0].ID())

	evs := eventsOf(res)
	require.Len(t, evs, 1)
	assert.Equal(t, ledger.Income, evs[0].Kind)
	assert.True(t, evs[0].Amount.Equal(d("2000")))
	assert.Equal(t, sydney, evs[0].Time.Location())

	// The out-of-window disposal consumed the income lot only.
	require.Len(t, res.Holdings[eth], 1)
	assert.True(t, res.Holdings[eth][0].CostBasis.Equal(d("3000")))
	assert.Empty(t, res.Unresolved)
}

func TestRun_WindowEndInOtherLocation(t *testing.T) {
	sydney := time.FixedZone("AEST", 10*60*60)
	btc := Ticker("BTC")
	// The end bound is given in UTC; it is 2022-06-30 22:00 in Sydney.
	e := newEngine(t,
		time.Date(2021, 7, 1, 0, 0, 0, 0, sydney),
		time.Date(2022, 6, 30, 12, 0, 0, 0, time.UTC))

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		btc: {
			tx(time.Date(2021, 7, 1, 0, 0, 0, 0, sydney), Acquire, btc, "1", "100"),
			tx(time.Date(2022, 6, 30, 11, 0, 0, 0, time.UTC), Dispose, btc, "1", "150"),
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Ledger.Years(), 1)

	evs := eventsOf(res)
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Amount.Equal(d("50")))
	assert.False(t, evs[0].Discount)
}

func TestRun_InvalidTransactionStopsOnlyItsToken(t *testing.T) {
	btc, eth := Ticker("BTC"), Ticker("ETH")
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30))

	bad := tx(day(2021, 8, 1), Acquire, btc, "1", "1")
	bad.Volume = decimal.Zero

	res, err := e.Run(context.Background(), map[TokenID][]Transaction{
		btc: {
			tx(day(2021, 7, 2), Acquire, btc, "1", "1"),
			bad,
			tx(day(2021, 9, 1), Acquire, btc, "1", "1"),
		},
		eth: {tx(day(2021, 7, 2), Income, eth, "1", "100")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, btc, txErr.Token)
	assert.Equal(t, 1, txErr.Index)

	require.NotNil(t, res)
	assert.Len(t, res.Holdings[btc], 1, "transactions after the bad one are not applied")
	assert.Len(t, eventsOf(res), 1, "ETH still processed")
}

func TestRun_RejectsUnknownKindAndForeignToken(t *testing.T) {
	btc := Ticker("BTC")
	tests := []struct {
		name string
		tx   Transaction
	}{
		{"unknown kind", tx(day(2021, 8, 1), Kind(9), btc, "1", "1")},
		{"zero kind", tx(day(2021, 8, 1), Kind(0), btc, "1", "1")},
		{"negative volume", tx(day(2021, 8, 1), Acquire, btc, "-1", "1")},
		{"foreign token", tx(day(2021, 8, 1), Acquire, Ticker("ETH"), "1", "1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30))
			err := e.Process(context.Background(), btc, []Transaction{tt.tx})
			assert.ErrorIs(t, err, ErrInvalidTransaction)
		})
	}
}

func TestProcess_RejectsOutOfOrder(t *testing.T) {
	btc := Ticker("BTC")
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30))

	err := e.Process(context.Background(), btc, []Transaction{
		tx(day(2021, 9, 1), Acquire, btc, "1", "1"),
		tx(day(2021, 8, 1), Dispose, btc, "1", "2"),
	})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	// Later calls continue from the last accepted timestamp.
	err = e.Process(context.Background(), btc, []Transaction{tx(day(2021, 8, 15), Dispose, btc, "1", "2")})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	require.NoError(t, e.Process(context.Background(), btc, []Transaction{tx(day(2021, 9, 1), Dispose, btc, "1", "2")}))
	assert.Equal(t, 1, e.Result().Ledger.Len())
}

func TestProcess_SortIntake(t *testing.T) {
	btc := Ticker("BTC")
	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30), WithSortIntake())

	require.NoError(t, e.Process(context.Background(), btc, []Transaction{
		tx(day(2021, 9, 1), Dispose, btc, "1", "2"),
		tx(day(2021, 8, 1), Acquire, btc, "1", "1"),
	}))

	res := e.Result()
	assert.Empty(t, res.Unresolved)
	evs := eventsOf(res)
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Amount.Equal(d("1")))
}

func TestRun_ConcurrentMatchesSequential(t *testing.T) {
	bank := map[TokenID][]Transaction{}
	tokens := []TokenID{Ticker("BTC"), Ticker("ETH"), Composite("UNI-V2", "0xABCDEF"), Ticker("SOL"), Ticker("DOT")}
	for i, tok := range tokens {
		price := decimal.NewFromInt(int64(10 * (i + 1)))
		bank[tok] = []Transaction{
			{Time: day(2020, 8, 1), Kind: Acquire, Token: tok, Volume: d("5"), Price: price, AdjustedPrice: price},
			{Time: day(2021, 1, 1), Kind: Income, Token: tok, Volume: d("1"), Price: price, AdjustedPrice: price},
			{Time: day(2021, 9, 1), Kind: Dispose, Token: tok, Volume: d("3"), Price: price.Mul(d("2")), AdjustedPrice: price.Mul(d("2"))},
			{Time: day(2022, 2, 1), Kind: Loss, Token: tok, Volume: d("3")},
		}
	}

	run := func(opts ...Option) *Result {
		e := newEngine(t, day(2020, 7, 1), day(2022, 6, 30), opts...)
		res, err := e.Run(context.Background(), bank)
		require.NoError(t, err)
		return res
	}
	seq := run()
	par := run(WithWorkers(4))

	seqEvents, parEvents := eventsOf(seq), eventsOf(par)
	require.Len(t, parEvents, len(seqEvents))
	for i := range seqEvents {
		assert.Equal(t, seqEvents[i].ID, parEvents[i].ID)
		assert.True(t, seqEvents[i].Amount.Equal(parEvents[i].Amount))
	}
	for i, s := range seq.Summaries() {
		assert.True(t, s.NetCapitalGains.Equal(par.Summaries()[i].NetCapitalGains))
		assert.True(t, s.Income.Equal(par.Summaries()[i].Income))
	}
}

func TestRun_ReprocessingYieldsSameLedger(t *testing.T) {
	btc := Ticker("BTC")
	bank := map[TokenID][]Transaction{btc: {
		tx(day(2020, 1, 1), Acquire, btc, "10", "1.0"),
		tx(day(2021, 2, 1), Dispose, btc, "4", "5.0"),
		tx(day(2021, 3, 1), Dispose, btc, "6", "0.5"),
	}}

	first, err := newEngine(t, day(2020, 1, 1), day(2021, 6, 30)).Run(context.Background(), bank)
	require.NoError(t, err)
	second, err := newEngine(t, day(2020, 1, 1), day(2021, 6, 30)).Run(context.Background(), bank)
	require.NoError(t, err)

	a, b := eventsOf(first), eventsOf(second)
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
	}
	assert.NotEqual(t, a[0].ID, a[1].ID)
}

func TestRun_CancelledContext(t *testing.T) {
	btc := Ticker("BTC")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newEngine(t, day(2021, 7, 1), day(2022, 6, 30))
	_, err := e.Run(ctx, map[TokenID][]Transaction{btc: {tx(day(2021, 8, 1), Acquire, btc, "1", "1")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBank_GroupsByToken(t *testing.T) {
	btc, lp := Ticker("BTC"), Composite("UNI-V2", "0xAbC")
	bank := Bank([]Transaction{
		tx(day(2021, 1, 1), Acquire, btc, "1", "1"),
		tx(day(2021, 1, 2), Acquire, lp, "1", "1"),
		tx(day(2021, 1, 3), Dispose, btc, "1", "1"),
	})

	require.Len(t, bank, 2)
	assert.Len(t, bank[btc], 2)
	assert.Len(t, bank[Composite("UNI-V2", "0xabc")], 1)
	assert.Equal(t, "UNI-V2@0xabc", lp.String())
	assert.NotEqual(t, Ticker("UNI-V2"), lp)
}
