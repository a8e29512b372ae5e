package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
)

// TransactionsPath is the collection endpoint relative to the base URL.
const TransactionsPath = "/transactions"

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 20

// TransactionsQuery builds the full query for one page: the serialized
// filters plus page and limit. Cursors below 1 are clamped to 1.
func TransactionsQuery(cursor, limit int, filters model.FilterState) url.Values {
	if cursor < 1 {
		cursor = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	q := filters.Query()
	q.Set(model.ParamPage, strconv.Itoa(cursor))
	q.Set(model.ParamLimit, strconv.Itoa(limit))
	return q
}

// FetchTransactions retrieves one page of transactions matching filters.
// An empty page means the end of the collection and is not an error.
func (c *Client) FetchTransactions(ctx context.Context, cursor int, filters model.FilterState) ([]model.Transaction, error) {
	var txns []model.Transaction
	if err := c.Get(ctx, TransactionsPath, TransactionsQuery(cursor, c.pageSize, filters), &txns); err != nil {
		return nil, err
	}

	if txns == nil {
		txns = []model.Transaction{}
	}

	c.logger.Debug("Fetched transactions page",
		"cursor", max(cursor, 1),
		"count", len(txns),
		"filters", filters.String())

	return txns, nil
}
