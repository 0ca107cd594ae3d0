// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package fy maps instants onto Australian financial years, which run from
// 1 July to 30 June of the following calendar year.
package fy

import (
	"fmt"
	"time"
)

// startMonth is the first month of a financial year.
const startMonth = time.July

// discountHolding is the holding period a disposal must exceed to qualify
// for the CGT discount.
const discountHolding = 12 // months

// Year identifies a financial year by the calendar year it starts in.
// Year{2021} runs from 2021-07-01 to 2022-06-30.
type Year struct {
	StartYear int
}

// Resolve returns the financial year containing t. The July 1 boundary is
// evaluated in t's own location.
func Resolve(t time.Time) Year {
	if t.Month() >= startMonth {
		return Year{StartYear: t.Year()}
	}
	return Year{StartYear: t.Year() - 1}
}

// EndYear is the calendar year the financial year ends in.
func (y Year) EndYear() int {
	return y.StartYear + 1
}

// ID renders the year label used in reports, e.g. "2021-22FY".
func (y Year) ID() string {
	return fmt.Sprintf("%d-%02dFY", y.StartYear, y.EndYear()%100)
}

func (y Year) String() string {
	return y.ID()
}

// Start is the first instant of the year in loc.
func (y Year) Start(loc *time.Location) time.Time {
	return time.Date(y.StartYear, startMonth, 1, 0, 0, 0, 0, loc)
}

// End is the first instant of the following year in loc (exclusive bound).
func (y Year) End(loc *time.Location) time.Time {
	return y.Next().Start(loc)
}

// Contains reports whether t falls inside the year.
func (y Year) Contains(t time.Time) bool {
	return Resolve(t) == y
}

func (y Year) Next() Year {
	return Year{StartYear: y.StartYear + 1}
}

func (y Year) Before(o Year) bool {
	return y.StartYear < o.StartYear
}

// Span lists every financial year touched by [start, end] in ascending
// order. It returns nil when end is before start.
func Span(start, end time.Time) []Year {
	if end.Before(start) {
		return nil
	}
	var years []Year
	last := Resolve(end)
	for y := Resolve(start); !last.Before(y); y = y.Next() {
		years = append(years, y)
	}
	return years
}

// DiscountEligible reports whether an asset acquired at acquired and disposed
// of at disposed was held for strictly more than 12 calendar months.
// A disposal exactly 12 months after acquisition is not eligible.
func DiscountEligible(acquired, disposed time.Time) bool {
	return disposed.After(acquired.AddDate(0, discountHolding, 0))
}
