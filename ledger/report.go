// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package ledger

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ReportHeader is the column order of ReportRows.
var ReportHeader = []string{
	"Time", "Token", "Event Kind", "Cost Basis", "Disposal Price", "Volume", "Discount-Eligible", "Value",
}

// Labels of the trailing total rows.
const (
	TotalIncome             = "Total Income"
	TotalDiscountEligible   = "Discount-Eligible Gains"
	TotalDiscountIneligible = "Discount-Ineligible Gains"
	TotalLosses             = "Total Losses"
	TotalNetCapitalGains    = "Net Capital Gains"
)

// ReportRows lays events and their summary out as a table: the header, one
// row per event and five total rows carrying only a label and a value.
// Rendering is left to the caller.
func ReportRows(events []GainEvent, s Summary) [][]string {
	rows := make([][]string, 0, len(events)+6)
	rows = append(rows, append([]string(nil), ReportHeader...))
	for _, ev := range events {
		rows = append(rows, eventRow(ev))
	}
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{TotalIncome, s.Income},
		{TotalDiscountEligible, s.DiscountEligible},
		{TotalDiscountIneligible, s.DiscountIneligible},
		{TotalLosses, s.Losses},
		{TotalNetCapitalGains, s.NetCapitalGains},
	}
	for _, tot := range totals {
		row := make([]string, len(ReportHeader))
		row[2] = tot.label
		row[len(row)-1] = tot.value.StringFixed(2)
		rows = append(rows, row)
	}
	return rows
}

func eventRow(ev GainEvent) []string {
	return []string{
		ev.Time.Format(time.RFC3339),
		ev.Token,
		ev.Kind.String(),
		ev.CostBasis.String(),
		ev.Price.String(),
		ev.Volume.String(),
		strconv.FormatBool(ev.Discount),
		ev.Amount.StringFixed(2),
	}
}
