// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amyandpotatoes/aus-crypto-tax-calc/engine"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/fy"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/lot"
)

// Data models
type txRow struct {
	Time          time.Time
	Kind          engine.Kind
	Token         engine.TokenID
	Volume        decimal.Decimal
	Fee           decimal.Decimal // total fee of the row, AUD
	Price         decimal.Decimal // per unit, AUD
	AdjustedPrice decimal.Decimal
	HasAdjusted   bool
	Group         string // legs of one on-chain transaction share a fee
	SourceFile    string
	Line          int
}

// Utilities
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime accepts the layouts above. Times without a zone are read in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %q", s)
}

// parseDecimal reads an amount, allowing thousands separators. Empty is zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[strings.ToLower(k)]; ok {
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

func tokenOf(record map[string]string) (engine.TokenID, error) {
	ticker := firstNonEmpty(record, "ticker", "asset", "symbol", "commodity")
	if ticker == "" {
		return engine.TokenID{}, fmt.Errorf("no ticker")
	}
	if contract := firstNonEmpty(record, "contract", "address"); contract != "" {
		return engine.Composite(ticker, contract), nil
	}
	return engine.Ticker(ticker), nil
}

// readCSV reads a file with a header row into one map per record, keyed by
// the lowercased column name.
func readCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	headerRow, err := cr.Read()
	if err != nil {
		return nil, err
	}
	// map header -> index (lowercased)
	headerIdx := map[string]int{}
	for i, h := range headerRow {
		headerIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var records []map[string]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		record := make(map[string]string, len(headerIdx))
		for k, i := range headerIdx {
			if i < len(row) {
				record[k] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// parseTxRecord maps one row of a classified transaction file.
func parseTxRecord(record map[string]string, loc *time.Location) (txRow, error) {
	timeStr := firstNonEmpty(record, "time", "date", "datetime")
	if timeStr == "" {
		return txRow{}, fmt.Errorf("no time")
	}
	t, err := parseTime(timeStr, loc)
	if err != nil {
		return txRow{}, err
	}
	kind, err := engine.ParseKind(firstNonEmpty(record, "kind", "type", "tx_type", "category"))
	if err != nil {
		return txRow{}, err
	}
	tok, err := tokenOf(record)
	if err != nil {
		return txRow{}, err
	}
	row := txRow{Time: t, Kind: kind, Token: tok, Group: firstNonEmpty(record, "group", "refid", "txid")}
	for _, f := range []struct {
		dst  *decimal.Decimal
		keys []string
	}{
		{&row.Volume, []string{"volume", "amount", "qty", "vol"}},
		{&row.Fee, []string{"fee"}},
		{&row.Price, []string{"price"}},
	} {
		if *f.dst, err = parseDecimal(firstNonEmpty(record, f.keys...)); err != nil {
			return txRow{}, fmt.Errorf("%s: %w", f.keys[0], err)
		}
	}
	if s := firstNonEmpty(record, "adjusted_price"); s != "" {
		if row.AdjustedPrice, err = parseDecimal(s); err != nil {
			return txRow{}, fmt.Errorf("adjusted_price: %w", err)
		}
		row.HasAdjusted = true
	}
	// Exports often sign outgoing volumes; the kind already says which way.
	row.Volume = row.Volume.Abs()
	return row, nil
}

// parseTxFile reads every row of one transaction file.
func parseTxFile(r io.Reader, src string, loc *time.Location) ([]txRow, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	rows := make([]txRow, 0, len(records))
	for i, record := range records {
		row, err := parseTxRecord(record, loc)
		if err != nil {
			// header is line 1
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		row.SourceFile = src
		row.Line = i + 2
		rows = append(rows, row)
	}
	return rows, nil
}

// Merge and sort rows by time
func mergeAndSortRows(all [][]txRow) []txRow {
	var merged []txRow
	for _, chunk := range all {
		merged = append(merged, chunk...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Time.Equal(merged[j].Time) {
			// stable tie-breaker by source file and line
			if merged[i].SourceFile != merged[j].SourceFile {
				return merged[i].SourceFile < merged[j].SourceFile
			}
			return merged[i].Line < merged[j].Line
		}
		return merged[i].Time.Before(merged[j].Time)
	})
	return merged
}

// spreadGroupFees pools the fees of every group and hands them back to its
// legs in proportion to each leg's market value.
func spreadGroupFees(rows []txRow) error {
	groups := make(map[string][]int)
	var names []string
	for i, row := range rows {
		if row.Group == "" {
			continue
		}
		if _, ok := groups[row.Group]; !ok {
			names = append(names, row.Group)
		}
		groups[row.Group] = append(groups[row.Group], i)
	}
	for _, name := range names {
		legs := groups[name]
		total := decimal.Zero
		weights := make([]decimal.Decimal, len(legs))
		for j, i := range legs {
			total = total.Add(rows[i].Fee)
			weights[j] = rows[i].Volume.Mul(rows[i].Price)
		}
		shares, err := engine.Split(total, weights)
		if err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
		for j, i := range legs {
			rows[i].Fee = shares[j]
		}
	}
	return nil
}

// adjustedPrice folds the per-unit fee into the price: added to what an
// acquisition cost, subtracted from what a disposal fetched.
func adjustedPrice(kind engine.Kind, price, totalFee, volume decimal.Decimal) decimal.Decimal {
	if volume.IsZero() {
		return price
	}
	perUnit := totalFee.Div(volume)
	if kind == engine.Dispose {
		return price.Sub(perUnit)
	}
	return price.Add(perUnit)
}

// transactions turns merged rows into engine transactions, in order.
func transactions(rows []txRow) ([]engine.Transaction, error) {
	if err := spreadGroupFees(rows); err != nil {
		return nil, err
	}
	txs := make([]engine.Transaction, 0, len(rows))
	for _, row := range rows {
		adjusted := row.AdjustedPrice
		if !row.HasAdjusted {
			adjusted = adjustedPrice(row.Kind, row.Price, row.Fee, row.Volume)
		}
		tx, err := engine.NewTransaction(row.Time, row.Kind, row.Token, row.Volume, row.Fee, row.Price, adjusted)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", row.SourceFile, row.Line, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// loadTransactions parses every file, merges them by time and builds the
// engine's transactions.
func loadTransactions(paths []string, loc *time.Location, log *slog.Logger) ([]engine.Transaction, error) {
	all := make([][]txRow, 0, len(paths))
	for _, path := range paths {
		rows, err := parseTxPath(path, loc)
		if err != nil {
			return nil, err
		}
		log.Debug("parsed transactions", "file", path, "rows", len(rows))
		all = append(all, rows)
	}
	return transactions(mergeAndSortRows(all))
}

func parseTxPath(path string, loc *time.Location) ([]txRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := parseTxFile(f, filepath.Base(path), loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// parseOverrides reads a table of lots that cover known shortfalls. An empty
// disposed_at makes the row available to any disposal of the token.
func parseOverrides(r io.Reader, loc *time.Location) (*engine.OverrideTable, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	table := engine.NewOverrideTable()
	for i, record := range records {
		tok, disposedAt, s, err := parseOverrideRecord(record, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		table.Add(tok, disposedAt, s)
	}
	return table, nil
}

func parseOverrideRecord(record map[string]string, loc *time.Location) (engine.TokenID, time.Time, lot.Synthetic, error) {
	var (
		disposedAt time.Time
		s          lot.Synthetic
		err        error
	)
	tok, err := tokenOf(record)
	if err != nil {
		return tok, disposedAt, s, err
	}
	if v := firstNonEmpty(record, "disposed_at"); v != "" {
		if disposedAt, err = parseTime(v, loc); err != nil {
			return tok, disposedAt, s, err
		}
	}
	v := firstNonEmpty(record, "acquired_at")
	if v == "" {
		return tok, disposedAt, s, fmt.Errorf("no acquired_at")
	}
	if s.AcquiredAt, err = parseTime(v, loc); err != nil {
		return tok, disposedAt, s, err
	}
	if s.CostBasis, err = parseDecimal(firstNonEmpty(record, "cost_basis", "cost")); err != nil {
		return tok, disposedAt, s, fmt.Errorf("cost_basis: %w", err)
	}
	if s.Volume, err = parseDecimal(firstNonEmpty(record, "volume", "amount")); err != nil {
		return tok, disposedAt, s, fmt.Errorf("volume: %w", err)
	}
	return tok, disposedAt, s, nil
}

func loadOverrides(path string, loc *time.Location) (*engine.OverrideTable, error) {
	if path == "" {
		return engine.NewOverrideTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	table, err := parseOverrides(f, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// window fills in whichever bound is unset with the edge of the financial
// year, in loc, holding the earliest or latest transaction.
func window(start, end time.Time, txs []engine.Transaction, loc *time.Location) (time.Time, time.Time) {
	if len(txs) == 0 || (!start.IsZero() && !end.IsZero()) {
		return start, end
	}
	first, last := txs[0].Time, txs[0].Time
	for _, tx := range txs[1:] {
		if tx.Time.Before(first) {
			first = tx.Time
		}
		if tx.Time.After(last) {
			last = tx.Time
		}
	}
	if start.IsZero() {
		start = fy.Resolve(first.In(loc)).Start(loc)
	}
	if end.IsZero() {
		end = fy.Resolve(last.In(loc)).End(loc).Add(-time.Nanosecond)
	}
	return start, end
}

// chain asks each resolver in turn until one supplies a lot.
type chain []engine.ShortfallResolver

func (c chain) ResolveShortfall(ctx context.Context, token engine.TokenID, unmatched decimal.Decimal, disposedAt time.Time) (lot.Synthetic, error) {
	err := engine.ErrNoShortfallData
	for _, r := range c {
		var s lot.Synthetic
		if s, err = r.ResolveShortfall(ctx, token, unmatched, disposedAt); err == nil {
			return s, nil
		}
	}
	return lot.Synthetic{}, err
}
