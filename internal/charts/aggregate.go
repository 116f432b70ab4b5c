// Package charts turns an expense list into the category breakdown and the
// monthly trend, and renders both as SVG files bound to named canvases.
package charts

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Slice is one category of the breakdown.
type Slice struct {
	Label   string
	Amount  decimal.Decimal
	Percent decimal.Decimal
	Color   RGB
}

// Tooltip reads "Food: $30.00 (30.0%)".
func (s Slice) Tooltip(cur Currency) string {
	return fmt.Sprintf("%s: %s (%s%%)", s.Label, cur.FormatDecimal(s.Amount), s.Percent.StringFixed(1))
}

type CategoryChart struct {
	Slices []Slice
	Total  decimal.Decimal
}

// NewCategoryChart sums amounts per category in first-seen order and
// assigns colors by position.
func NewCategoryChart(expenses []core.Expense) CategoryChart {
	order := make([]string, 0)
	sums := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		if _, ok := sums[e.Category]; !ok {
			order = append(order, e.Category)
		}
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	total := decimal.Zero
	for _, k := range order {
		total = total.Add(sums[k])
	}

	colors := Colors(len(order))
	slices := make([]Slice, len(order))
	for i, k := range order {
		slices[i] = Slice{
			Label:   k,
			Amount:  sums[k],
			Percent: Percent(sums[k], total),
			Color:   colors[i],
		}
	}
	return CategoryChart{Slices: slices, Total: total}
}

// Drawable returns the slices with a positive amount, the only ones a pie
// can show.
func (c CategoryChart) Drawable() []Slice {
	out := make([]Slice, 0, len(c.Slices))
	for _, s := range c.Slices {
		if s.Amount.IsPositive() {
			out = append(out, s)
		}
	}
	return out
}

// Percent returns part/total*100, or zero for a zero total.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}

// Point is one month of the trend.
type Point struct {
	Month  string // YYYY-MM
	Amount decimal.Decimal
}

// Tooltip reads "2024-01: $10.00".
func (p Point) Tooltip(cur Currency) string {
	return fmt.Sprintf("%s: %s", p.Month, cur.FormatDecimal(p.Amount))
}

type MonthlyChart struct {
	Points []Point
}

// NewMonthlyChart sums amounts per YYYY-MM. Zero-padded keys sort
// chronologically, so a plain string sort is enough.
func NewMonthlyChart(expenses []core.Expense) MonthlyChart {
	sums := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		k := e.Date.MonthKey()
		sums[k] = sums[k].Add(e.Amount)
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]Point, len(keys))
	for i, k := range keys {
		points[i] = Point{Month: k, Amount: sums[k]}
	}
	return MonthlyChart{Points: points}
}
