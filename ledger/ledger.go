// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package ledger buckets gain events by financial year and reduces each
// year to reportable totals.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amyandpotatoes/aus-crypto-tax-calc/fy"
)

// ErrYearOutOfRange is returned when an event falls in a financial year the
// ledger was not created for.
var ErrYearOutOfRange = errors.New("financial year out of range")

// Ledger maps financial years to their events. Buckets are created up front
// and only ever appended to. A Ledger is not safe for concurrent use; give
// each worker its own and Merge them.
type Ledger struct {
	years  []fy.Year
	events map[fy.Year][]GainEvent
}

// New creates an empty bucket for every financial year spanned by
// [start, end], so years without activity still show up in reports.
func New(start, end time.Time) *Ledger {
	return NewForYears(fy.Span(start, end))
}

func NewForYears(years []fy.Year) *Ledger {
	l := &Ledger{events: make(map[fy.Year][]GainEvent, len(years))}
	for _, y := range years {
		if _, ok := l.events[y]; ok {
			continue
		}
		l.years = append(l.years, y)
		l.events[y] = nil
	}
	sort.Slice(l.years, func(i, j int) bool { return l.years[i].Before(l.years[j]) })
	return l
}

// Record appends ev to the bucket of the financial year containing ev.Time.
func (l *Ledger) Record(ev GainEvent) error {
	y := fy.Resolve(ev.Time)
	bucket, ok := l.events[y]
	if !ok {
		return fmt.Errorf("%w: %s event for %s at %s", ErrYearOutOfRange, ev.Kind, ev.Token, ev.Time.Format(time.RFC3339))
	}
	l.events[y] = append(bucket, ev)
	return nil
}

// Covers reports whether t falls in one of the ledger's financial years.
func (l *Ledger) Covers(t time.Time) bool {
	for _, y := range l.years {
		if y.Contains(t) {
			return true
		}
	}
	return false
}

// Years lists the ledger's financial years in ascending order.
func (l *Ledger) Years() []fy.Year {
	out := make([]fy.Year, len(l.years))
	copy(out, l.years)
	return out
}

// Events returns a copy of the events recorded for y.
func (l *Ledger) Events(y fy.Year) []GainEvent {
	src := l.events[y]
	out := make([]GainEvent, len(src))
	copy(out, src)
	return out
}

// Len is the total number of events across all years.
func (l *Ledger) Len() int {
	n := 0
	for _, evs := range l.events {
		n += len(evs)
	}
	return n
}

// Merge appends every event of other into l. Both ledgers must cover the
// same years. Events within a year are then stable-sorted by time.
func (l *Ledger) Merge(other *Ledger) error {
	for _, y := range other.years {
		if _, ok := l.events[y]; !ok {
			return fmt.Errorf("merge %s: %w", y, ErrYearOutOfRange)
		}
	}
	for _, y := range other.years {
		if len(other.events[y]) == 0 {
			continue
		}
		merged := append(l.events[y], other.events[y]...)
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].Time.Before(merged[j].Time) })
		l.events[y] = merged
	}
	return nil
}

// Summary aggregates the events recorded for y.
func (l *Ledger) Summary(y fy.Year) Summary {
	return Summarize(l.events[y])
}

// YearSummary pairs a year with its totals.
type YearSummary struct {
	Year fy.Year
	Summary
}

// Summaries aggregates every year in ascending order.
func (l *Ledger) Summaries() []YearSummary {
	out := make([]YearSummary, 0, len(l.years))
	for _, y := range l.years {
		out = append(out, YearSummary{Year: y, Summary: l.Summary(y)})
	}
	return out
}
