// Package finance computes budget aggregates and alert bands from a list of
// expenses. Everything here is pure.
package finance

import (
	"sort"

	"finstress/internal/models"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category models.Category
	Total    float64
	Count    int
	// Share is the percentage of TotalSpent, not of the budget.
	Share float64
}

// Summary holds the aggregates of an expense list against a budget.
type Summary struct {
	Budget         float64
	TotalSpent     float64
	Remaining      float64
	Percentage     float64
	Count          int
	CategoryTotals []CategoryTotal
}

// Summarize folds expenses into totals. Category totals keep first-seen order.
func Summarize(list []models.Expense, budget float64) Summary {
	total := decimal.Zero
	byCat := make(map[models.Category]decimal.Decimal)
	counts := make(map[models.Category]int)
	var order []models.Category

	for _, e := range list {
		amount := decimal.NewFromFloat(e.Amount)
		total = total.Add(amount)
		if _, seen := byCat[e.Category]; !seen {
			order = append(order, e.Category)
		}
		byCat[e.Category] = byCat[e.Category].Add(amount)
		counts[e.Category]++
	}

	b := decimal.NewFromFloat(budget)
	s := Summary{
		Budget:     budget,
		TotalSpent: total.InexactFloat64(),
		Remaining:  b.Sub(total).InexactFloat64(),
		Count:      len(list),
	}
	if b.IsPositive() {
		s.Percentage = total.Mul(decimal.NewFromInt(100)).Div(b).InexactFloat64()
	}

	s.CategoryTotals = make([]CategoryTotal, 0, len(order))
	for _, c := range order {
		ct := CategoryTotal{
			Category: c,
			Total:    byCat[c].InexactFloat64(),
			Count:    counts[c],
		}
		if total.IsPositive() {
			ct.Share = byCat[c].Mul(decimal.NewFromInt(100)).Div(total).InexactFloat64()
		}
		s.CategoryTotals = append(s.CategoryTotals, ct)
	}
	return s
}

// ByAmount returns the category totals ordered by descending amount.
func (s Summary) ByAmount() []CategoryTotal {
	out := make([]CategoryTotal, len(s.CategoryTotals))
	copy(out, s.CategoryTotals)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// Overspent reports whether a positive budget has been exceeded.
func (s Summary) Overspent() bool {
	return s.Budget > 0 && s.TotalSpent > s.Budget
}

// Progress is the visual level of the budget progress bar.
type Progress string

const (
	ProgressSuccess Progress = "progress-success"
	ProgressWarning Progress = "progress-warning"
	ProgressDanger  Progress = "progress-danger"
)

// ProgressLevel maps the consumed percentage onto a progress bar level.
func ProgressLevel(percentage float64) Progress {
	switch {
	case percentage >= 100:
		return ProgressDanger
	case percentage >= 80:
		return ProgressWarning
	default:
		return ProgressSuccess
	}
}

// BarWidth caps the percentage at 100 for rendering.
func BarWidth(percentage float64) float64 {
	if percentage > 100 {
		return 100
	}
	return percentage
}
