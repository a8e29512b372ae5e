package insights

import (
	"testing"

	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(amount, category string, status model.Status) model.Transaction {
	return model.Transaction{Amount: amount, Category: category, Status: status}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)
	assert.Zero(t, s.TotalTransactions)
	assert.Zero(t, s.SuccessRate)
	assert.True(t, s.SuccessfulAmount.IsZero())
	assert.Equal(t, NoCategory, s.TopCategory)
	assert.Equal(t, "Based on 0 loaded transactions", s.Scope())
}

func TestCompute(t *testing.T) {
	txns := []model.Transaction{
		tx("100.10", "payment", model.StatusSuccess),
		tx("50", "deposit", model.StatusFailure),
		tx("200", "deposit", model.StatusPending),
		tx("0.20", "payment", model.StatusSuccess),
		tx("not-a-number", "invoice", model.StatusSuccess),
	}

	s := Compute(txns)

	assert.Equal(t, 5, s.TotalTransactions)
	assert.Equal(t, 3, s.SuccessfulCount)
	assert.Equal(t, 1, s.FailedCount)
	assert.Equal(t, 1, s.PendingCount)
	assert.True(t, decimal.RequireFromString("100.30").Equal(s.SuccessfulAmount), s.SuccessfulAmount.String())
	assert.InDelta(t, 60.0, s.SuccessRate, 0.0001)
	assert.Equal(t, "deposit", s.TopCategory, "top category counts every status")

	require.Len(t, s.CategoryTotals, 3)
	assert.Equal(t, "payment", s.CategoryTotals[0].Category)
	assert.Equal(t, 2, s.CategoryTotals[0].Count)
	assert.Equal(t, "invoice", s.CategoryTotals[2].Category)
	assert.True(t, s.CategoryTotals[2].Total.IsZero())
	assert.Equal(t, "Based on 5 loaded transactions", s.Scope())
}

func TestCompute_TopCategoryTieKeepsFirst(t *testing.T) {
	s := Compute([]model.Transaction{
		tx("10", "withdraw", model.StatusSuccess),
		tx("10", "invoice", model.StatusSuccess),
	})
	assert.Equal(t, "withdraw", s.TopCategory)
}

func TestCompute_TopCategoryNeedsPositiveTotal(t *testing.T) {
	s := Compute([]model.Transaction{
		tx("-5", "withdraw", model.StatusSuccess),
		tx("0", "invoice", model.StatusSuccess),
	})
	assert.Equal(t, NoCategory, s.TopCategory)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatAmount(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "0.00", FormatAmount(decimal.Zero))
	assert.Equal(t, "$1,000.50", FormatMoney(decimal.RequireFromString("1000.5")))
	assert.Equal(t, "-$3.00", FormatMoney(decimal.RequireFromString("-3")))
	assert.Equal(t, "66.7%", FormatRate(200.0/3))
	assert.Equal(t, "0.0%", FormatRate(0))
	assert.Equal(t, "Payment", DisplayCategory("payment"))
	assert.Equal(t, NoCategory, DisplayCategory(NoCategory))
	assert.Equal(t, "Based on 1 loaded transaction", Summary{TotalTransactions: 1}.Scope())
	assert.Equal(t, "Based on 1,500 loaded transactions", Summary{TotalTransactions: 1500}.Scope())
}
