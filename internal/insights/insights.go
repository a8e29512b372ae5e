// Package insights derives aggregate statistics from loaded transactions.
package insights

import (
	"fmt"
	"strings"

	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoCategory is shown when no category has a positive total.
const NoCategory = "N/A"

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Total    decimal.Decimal
	Category string
	Count    int
}

// Summary is computed over the loaded transactions only, never the full
// remote dataset.
type Summary struct {
	SuccessfulAmount  decimal.Decimal
	TopCategory       string
	CategoryTotals    []CategoryTotal
	TotalTransactions int
	SuccessfulCount   int
	FailedCount       int
	PendingCount      int
	SuccessRate       float64
}

// Compute aggregates txns. Amounts that fail to parse count as zero.
func Compute(txns []model.Transaction) Summary {
	s := Summary{
		TotalTransactions: len(txns),
		SuccessfulAmount:  decimal.Zero,
		TopCategory:       NoCategory,
	}

	index := make(map[string]int)
	for _, t := range txns {
		amount := t.DecimalAmount()

		switch t.Status {
		case model.StatusSuccess:
			s.SuccessfulCount++
			s.SuccessfulAmount = s.SuccessfulAmount.Add(amount)
		case model.StatusFailure:
			s.FailedCount++
		default:
			s.PendingCount++
		}

		i, ok := index[t.Category]
		if !ok {
			i = len(s.CategoryTotals)
			index[t.Category] = i
			s.CategoryTotals = append(s.CategoryTotals, CategoryTotal{Category: t.Category, Total: decimal.Zero})
		}
		s.CategoryTotals[i].Total = s.CategoryTotals[i].Total.Add(amount)
		s.CategoryTotals[i].Count++
	}

	if s.TotalTransactions > 0 {
		s.SuccessRate = float64(s.SuccessfulCount) / float64(s.TotalTransactions) * 100
	}

	// Ties keep the first category encountered.
	best := decimal.Zero
	for _, ct := range s.CategoryTotals {
		if ct.Total.GreaterThan(best) {
			best = ct.Total
			s.TopCategory = ct.Category
		}
	}

	return s
}

// Scope is the caveat rendered next to the statistics.
func (s Summary) Scope() string {
	if s.TotalTransactions == 1 {
		return "Based on 1 loaded transaction"
	}
	return printer.Sprintf("Based on %d loaded transactions", s.TotalTransactions)
}

// FormatAmount renders d with two decimals and thousands grouping.
func FormatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// FormatMoney renders d as a dollar amount, as on the successful-total card.
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + FormatAmount(d.Abs())
	}
	return "$" + FormatAmount(d)
}

// FormatRate renders a percentage with one decimal.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// DisplayCategory capitalizes a category for display.
func DisplayCategory(category string) string {
	if category == "" || category == NoCategory {
		return category
	}
	return titler.String(strings.ToLower(category))
}
