package components

import (
	"fmt"
	"testing"

	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/themes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTransactions(n int) []model.Transaction {
	txns := make([]model.Transaction, n)
	for i := range txns {
		txns[i] = model.Transaction{
			ID:        fmt.Sprintf("%d", i+1),
			Name:      fmt.Sprintf("User %d", i+1),
			Amount:    "42.10",
			Currency:  "EUR",
			Category:  "withdraw",
			CreatedAt: "2024-12-01T08:30:00.000Z",
			Status:    model.StatusFailure,
		}
	}
	return txns
}

func TestRow(t *testing.T) {
	tests := []struct {
		name string
		want []string
		txn  model.Transaction
	}{
		{
			name: "success",
			txn: model.Transaction{
				ID: "7", Name: "Alice", Amount: "12.50", Currency: "USD",
				Category: "payment", CreatedAt: "2024-03-05T10:00:00.000Z", Status: model.StatusSuccess,
			},
			want: []string{"7", "Alice", "USD 12.50", "Payment", "Success", "5 Mar 2024"},
		},
		{
			name: "pending with unparseable date",
			txn: model.Transaction{
				ID: "8", Name: "Bob", Amount: "1", Currency: "GBP",
				Category: "invoice", CreatedAt: "yesterday", Status: model.StatusPending,
			},
			want: []string{"8", "Bob", "GBP 1", "Invoice", "Pending", "yesterday"},
		},
		{
			name: "failed",
			txn: model.Transaction{
				ID: "9", Name: "Carol", Amount: "3.00", Currency: "USD",
				Category: "deposit", CreatedAt: "2023-01-31", Status: model.StatusFailure,
			},
			want: []string{"9", "Carol", "USD 3.00", "Deposit", "Failed", "31 Jan 2023"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, []string(Row(tt.txn)))
		})
	}
}

func TestTransactionList_Position(t *testing.T) {
	m := NewTransactionList(themes.Default)
	m.Resize(100, 12)
	m.SetTransactions(makeTransactions(40))

	pos := m.Position()
	require.Positive(t, pos.Viewport)
	assert.Equal(t, 0, pos.Offset)
	assert.Equal(t, 40, pos.Total)

	m.ScrollBy(39)
	pos = m.Position()
	assert.Equal(t, 39, m.Cursor())
	assert.Equal(t, 40, pos.Offset+pos.Viewport)

	m.GotoTop()
	assert.Equal(t, 0, m.Cursor())
}

func TestTransactionList_EmptyIsSafe(t *testing.T) {
	m := NewTransactionList(themes.Default)
	m.ScrollBy(5)
	m.GotoTop()

	assert.Equal(t, 0, m.Cursor())
	assert.Equal(t, 0, m.Position().Total)
}

func TestTransactionList_ShrinkingRowsClampsCursor(t *testing.T) {
	m := NewTransactionList(themes.Default)
	m.SetTransactions(makeTransactions(30))
	m.ScrollBy(25)

	m.SetTransactions(makeTransactions(10))
	assert.Equal(t, 9, m.Cursor())
	assert.Len(t, m.Transactions(), 10)
}

func TestTransactionList_View(t *testing.T) {
	m := NewTransactionList(themes.Default)
	m.Resize(100, 10)
	m.SetTransactions(makeTransactions(3))

	view := m.View()
	for _, want := range []string{"ID", "User", "Amount", "Category", "Status", "Date", "User 2", "EUR 42.10", "Withdraw", "Failed", "1 Dec 2024"} {
		assert.Contains(t, view, want)
	}
}
