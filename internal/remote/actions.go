package remote

import (
	"context"
	"net/url"
	"strconv"

	"chitieu/internal/core"
)

// Store actions.
const (
	ActionTransactionsByDate  = "getTransactionsByDate"
	ActionTransactionsByMonth = "getTransactionsByMonth"
	ActionCategories          = "getCategories"
	ActionMonthlyData         = "getMonthlyData"
	ActionExpensesByCategory  = "getExpensesByCategoryForMonths"
	ActionCategoryMonthlyData = "getCategoryMonthlyData"
	ActionKeywords            = "getKeywords"
	ActionSearchTransactions  = "searchTransactions"
	ActionAddTransaction      = "addTransaction"
	ActionUpdateTransaction   = "updateTransaction"
	ActionDeleteTransaction   = "deleteTransaction"
	ActionAddKeyword          = "addKeyword"
	ActionDeleteKeyword       = "deleteKeyword"
)

func monthRange(start, end int) url.Values {
	return url.Values{
		"startMonth": {strconv.Itoa(start)},
		"endMonth":   {strconv.Itoa(end)},
	}
}

// TransactionsByDate lists one day. isoDate is YYYY-MM-DD.
func (c *Client) TransactionsByDate(ctx context.Context, isoDate string) ([]core.Transaction, error) {
	var out []core.Transaction
	err := c.Get(ctx, ActionTransactionsByDate, url.Values{"date": {isoDate}}, &out)
	return out, err
}

func (c *Client) TransactionsByMonth(ctx context.Context, month, year int) ([]core.Transaction, error) {
	var out []core.Transaction
	err := c.Get(ctx, ActionTransactionsByMonth, url.Values{
		"month": {strconv.Itoa(month)},
		"year":  {strconv.Itoa(year)},
	}, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := c.Get(ctx, ActionCategories, nil, &out)
	return out, err
}

func (c *Client) MonthlyData(ctx context.Context, start, end int) ([]core.MonthlyPoint, error) {
	var out []core.MonthlyPoint
	err := c.Get(ctx, ActionMonthlyData, monthRange(start, end), &out)
	return out, err
}

func (c *Client) ExpensesByCategory(ctx context.Context, start, end int) ([]core.CategoryAmount, error) {
	var out []core.CategoryAmount
	err := c.Get(ctx, ActionExpensesByCategory, monthRange(start, end), &out)
	return out, err
}

func (c *Client) CategoryMonthlyData(ctx context.Context, category string, start, end, year int) ([]core.CategoryMonthAmount, error) {
	params := monthRange(start, end)
	params.Set("category", category)
	params.Set("year", strconv.Itoa(year))
	var out []core.CategoryMonthAmount
	err := c.Get(ctx, ActionCategoryMonthlyData, params, &out)
	return out, err
}

func (c *Client) Keywords(ctx context.Context) ([]core.KeywordSet, error) {
	var out []core.KeywordSet
	err := c.Get(ctx, ActionKeywords, nil, &out)
	return out, err
}

// SearchTransactions runs a server-paginated search. Empty criteria are
// left out of the query.
func (c *Client) SearchTransactions(ctx context.Context, q core.SearchQuery, page, limit int) (core.SearchPage, error) {
	params := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
		"year":  {strconv.Itoa(q.Year)},
	}
	if q.Content != "" {
		params.Set("content", q.Content)
	}
	if q.Amount != "" {
		params.Set("amount", q.Amount)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	var out core.SearchPage
	if err := c.Get(ctx, ActionSearchTransactions, params, &out); err != nil {
		return core.SearchPage{}, err
	}
	if out.TotalPages < 1 {
		out.TotalPages = 1
	}
	if out.CurrentPage < 1 {
		out.CurrentPage = 1
	}
	return out, nil
}

func transactionBody(tx core.Transaction) map[string]any {
	return map[string]any{
		"content":  tx.Content,
		"amount":   int64(tx.Amount),
		"type":     string(tx.Type),
		"category": tx.Category,
		"note":     tx.Note,
		"date":     tx.Date,
	}
}

// AddTransaction creates tx. tx.Date is DD/MM/YYYY.
func (c *Client) AddTransaction(ctx context.Context, tx core.Transaction) error {
	return c.Post(ctx, ActionAddTransaction, transactionBody(tx), nil)
}

// UpdateTransaction rewrites tx in the partition of month ("04").
func (c *Client) UpdateTransaction(ctx context.Context, tx core.Transaction, month string) error {
	body := transactionBody(tx)
	body["id"] = tx.ID.String()
	body["month"] = month
	return c.Post(ctx, ActionUpdateTransaction, body, nil)
}

func (c *Client) DeleteTransaction(ctx context.Context, id core.ID, month string) error {
	return c.Post(ctx, ActionDeleteTransaction, map[string]any{
		"id":    id.String(),
		"month": month,
	}, nil)
}

// AddKeyword appends comma-joined keywords to category.
func (c *Client) AddKeyword(ctx context.Context, category, keywords string) error {
	return c.Post(ctx, ActionAddKeyword, map[string]any{
		"category": category,
		"keywords": keywords,
	}, nil)
}

func (c *Client) DeleteKeyword(ctx context.Context, category, keyword string) error {
	return c.Post(ctx, ActionDeleteKeyword, map[string]any{
		"category": category,
		"keyword":  keyword,
	}, nil)
}
