package core

import (
	"fmt"
	"strings"
)

// Summary is the income/expense/balance block shown above a transaction list.
type Summary struct {
	Income  Dong `json:"income"`
	Expense Dong `json:"expense"`
	Balance Dong `json:"balance"`
}

// Summarize totals income and expense. Transactions of unknown type are ignored.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.Income += t.Amount
		case Expense:
			s.Expense += t.Amount
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}

// MonthlyPoint is one bar of the income/expense chart.
type MonthlyPoint struct {
	Month   int  `json:"month"`
	Income  Dong `json:"income"`
	Expense Dong `json:"expense"`
}

// SummarizeMonths totals the income and expense of a chart range.
func SummarizeMonths(points []MonthlyPoint) Summary {
	var s Summary
	for _, p := range points {
		s.Income += p.Income
		s.Expense += p.Expense
	}
	s.Balance = s.Income - s.Expense
	return s
}

// CategoryAmount is one slice of the expense pie chart.
type CategoryAmount struct {
	Category string `json:"category"`
	Amount   Dong   `json:"amount"`
}

// CategoryMonthAmount is one bar of a category drill-down chart.
type CategoryMonthAmount struct {
	Month  int  `json:"month"`
	Amount Dong `json:"amount"`
}

// ChartData is the payload of one chart filter query.
type ChartData struct {
	MonthlyData         []MonthlyPoint   `json:"monthlyData"`
	ExpenseCategoryData []CategoryAmount `json:"expenseCategoryData"`
	StartMonth          int              `json:"startMonth"`
	EndMonth            int              `json:"endMonth"`
}

// CategoryDetail is the drill-down payload for one category within the
// active chart range.
type CategoryDetail struct {
	ChartData    []CategoryMonthAmount `json:"chartData"`
	Transactions []Transaction         `json:"transactions"`
}

// SearchPage is the server-paginated search response.
type SearchPage struct {
	Transactions      []Transaction `json:"transactions"`
	TotalTransactions int           `json:"totalTransactions"`
	TotalPages        int           `json:"totalPages"`
	CurrentPage       int           `json:"currentPage"`
}

// KeywordSet maps a category to its comma-joined keywords.
type KeywordSet struct {
	Category string `json:"category"`
	Keywords string `json:"keywords"`
}

// List splits the comma-joined keywords, trimming blanks.
func (k KeywordSet) List() []string {
	return SplitKeywords(k.Keywords)
}

// Count is the number of keywords in the set.
func (k KeywordSet) Count() int {
	if strings.TrimSpace(k.Keywords) == "" {
		return 0
	}
	return len(strings.Split(k.Keywords, ","))
}

// Contains reports whether keyword is in the set, ignoring case.
func (k KeywordSet) Contains(keyword string) bool {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	for _, kw := range k.List() {
		if strings.ToLower(kw) == needle {
			return true
		}
	}
	return false
}

// SplitKeywords splits on commas, trims and drops empty entries.
func SplitKeywords(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinKeywords normalises user input ("a,b , c") into "a, b, c".
func JoinKeywords(s string) string {
	return strings.Join(SplitKeywords(s), ", ")
}

// SearchQuery holds the search form criteria for one year.
type SearchQuery struct {
	Year     int
	Content  string
	Amount   string // digits only, empty when not filtering by amount
	Category string
}

// NewSearchQuery normalises raw form values: content is trimmed and the
// amount is reduced to its digits.
func NewSearchQuery(year int, content, amount, category string) SearchQuery {
	q := SearchQuery{
		Year:     year,
		Content:  strings.TrimSpace(content),
		Category: strings.TrimSpace(category),
	}
	if strings.TrimSpace(amount) != "" {
		q.Amount = fmt.Sprint(int64(ParseNumber(amount)))
	}
	return q
}

func (q SearchQuery) Validate() error {
	if q.Content == "" && q.Amount == "" && q.Category == "" {
		return Invalid("search", ErrEmptySearch)
	}
	return nil
}

// Fingerprint is the cache key of the query: "year-content-amount-category".
func (q SearchQuery) Fingerprint() string {
	return fmt.Sprintf("%d-%s-%s-%s", q.Year, q.Content, q.Amount, q.Category)
}
