// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/amyandpotatoes/aus-crypto-tax-calc/engine"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/internal/config"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/internal/logger"
	"github.com/amyandpotatoes/aus-crypto-tax-calc/ledger"
)

// Australian crypto CGT calculator.
// Usage: cgt [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-workers N] [-sort] [-overrides lots.csv] [-interactive] [-v] file1.csv [file2.csv ...]

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	start := flag.String("start", "", "first day of the reporting window (YYYY-MM-DD). Default: start of the first financial year in the files")
	end := flag.String("end", "", "last day of the reporting window, inclusive (YYYY-MM-DD). Default: end of the last financial year in the files")
	workers := flag.Int("workers", cfg.Engine.Workers, "number of tokens processed concurrently")
	attempts := flag.Int("attempts", cfg.Engine.ShortfallAttempts, "how often a single shortfall is asked about")
	sortIntake := flag.Bool("sort", cfg.Engine.SortIntake, "sort each token's transactions by time instead of rejecting out-of-order input")
	overrides := flag.String("overrides", "", "CSV of lots covering disposals that exceed the known holdings")
	interactive := flag.Bool("interactive", false, "ask on the terminal for acquisitions missing from the files")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()
	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-workers N] [-sort] [-overrides lots.csv] [-interactive] [-v] file1.csv [file2.csv ...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	log := logger.Init(level)

	from, to := cfg.Window.Start, cfg.Window.End
	if *start != "" {
		if from, err = config.ParseDate(*start); err != nil {
			log.Error("invalid -start", "error", err)
			os.Exit(2)
		}
	}
	if *end != "" {
		if to, err = config.ParseDate(*end); err != nil {
			log.Error("invalid -end", "error", err)
			os.Exit(2)
		}
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	// Reports follow the local financial year; zone-less times are local too.
	loc := time.Local
	txs, err := loadTransactions(files, loc, log)
	if err != nil {
		log.Error("error parsing transactions", "error", err)
		os.Exit(1)
	}
	if len(txs) == 0 {
		log.Error("no transactions", "files", files)
		os.Exit(1)
	}
	table, err := loadOverrides(*overrides, loc)
	if err != nil {
		log.Error("error parsing overrides", "error", err)
		os.Exit(1)
	}
	from, to = window(from, to, txs, loc)
	log.Debug("loaded transactions", "transactions", len(txs), "overrides", table.Len(),
		"start", from.Format(time.RFC3339), "end", to.Format(time.RFC3339))

	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithWorkers(*workers),
		engine.WithMaxShortfallAttempts(*attempts),
	}
	if *sortIntake {
		opts = append(opts, engine.WithSortIntake())
	}
	if *interactive {
		// Terminal answers only after the batch table is exhausted.
		opts = append(opts, engine.WithResolver(chain{table, engine.NewPromptResolver(os.Stdin, os.Stderr)}))
	} else {
		opts = append(opts, engine.WithResolver(table))
	}

	e, err := engine.New(from, to, opts...)
	if err != nil {
		log.Error("invalid window", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, runErr := e.Run(ctx, engine.Bank(txs))
	if res != nil {
		printReport(os.Stdout, res)
	}
	if runErr != nil {
		log.Error("processing error", "error", runErr)
		os.Exit(1)
	}
}

// printReport writes one table per financial year, then open holdings and
// unresolved shortfalls.
func printReport(w io.Writer, res *engine.Result) {
	for _, ys := range res.Summaries() {
		fmt.Fprintf(w, "Financial year %s:\n", ys.Year.ID())
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, row := range ledger.ReportRows(res.Ledger.Events(ys.Year), ys.Summary) {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(res.Holdings) > 0 {
		tokens := make([]engine.TokenID, 0, len(res.Holdings))
		for tok := range res.Holdings {
			tokens = append(tokens, tok)
		}
		sort.Slice(tokens, func(i, j int) bool { return tokens[i].String() < tokens[j].String() })

		fmt.Fprintln(w, "Open holdings:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Token\tAcquired\tVolume\tCost Basis\tTotal Cost")
		for _, tok := range tokens {
			for _, l := range res.Holdings[tok] {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tok, l.AcquiredAt.Format(time.RFC3339), l.Volume, l.CostBasis, l.TotalCost().StringFixed(2))
			}
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(res.Unresolved) > 0 {
		fmt.Fprintln(w, "Unresolved shortfalls (left out of the totals above):")
		for _, s := range res.Unresolved {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}
}
