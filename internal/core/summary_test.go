package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeDailyScenario(t *testing.T) {
	txs := []Transaction{
		{ID: "1", Date: "15/03/2024", Amount: 500000, Type: Expense},
		{ID: "2", Date: "15/03/2024", Amount: 1200000, Type: Expense},
		{ID: "3", Date: "15/03/2024", Amount: 3000000, Type: Income},
	}
	s := Summarize(txs)
	assert.Equal(t, "3.000.000đ", s.Income.String())
	assert.Equal(t, "1.700.000đ", s.Expense.String())
	assert.Equal(t, "1.300.000đ", s.Balance.String())
}

func TestSummarizeMonths(t *testing.T) {
	s := SummarizeMonths([]MonthlyPoint{
		{Month: 3, Income: 5000, Expense: 1000},
		{Month: 4, Expense: 6000},
	})
	assert.Equal(t, Summary{Income: 5000, Expense: 7000, Balance: -2000}, s)
	assert.Equal(t, Summary{}, SummarizeMonths(nil))
}

func TestSearchQueryFingerprint(t *testing.T) {
	a := NewSearchQuery(2024, "  cà phê ", "50.000", "Ăn uống")
	b := SearchQuery{Category: "Ăn uống", Amount: "50000", Content: "cà phê", Year: 2024}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, "2024-cà phê-50000-Ăn uống", a.Fingerprint())

	empty := NewSearchQuery(2024, " ", "", "")
	assert.Equal(t, "2024---", empty.Fingerprint())
	assert.ErrorIs(t, empty.Validate(), ErrEmptySearch)
	assert.NoError(t, a.Validate())
}

func TestKeywordSet(t *testing.T) {
	k := KeywordSet{Category: "Ăn uống", Keywords: "phở, bún,  Cà Phê"}
	assert.Equal(t, 3, k.Count())
	assert.Equal(t, []string{"phở", "bún", "Cà Phê"}, k.List())
	assert.True(t, k.Contains("cà phê"))
	assert.False(t, k.Contains("trà"))
	assert.Equal(t, 0, KeywordSet{}.Count())
	assert.Equal(t, "a, b, c", JoinKeywords(" a,b , ,c"))
}

func TestFilterByCategory(t *testing.T) {
	txs := []Transaction{
		{ID: "1", Category: "Ăn uống"},
		{ID: "2", Category: "Di chuyển"},
		{ID: "3", Category: "Ăn uống"},
	}
	got := FilterByCategory(txs, "Ăn uống")
	require.Len(t, got, 2)
	assert.Equal(t, ID("1"), got[0].ID)
	assert.Equal(t, ID("3"), got[1].ID)
	assert.Len(t, txs, 3)
	assert.Empty(t, FilterByCategory(txs, "Khác"))
	assert.Equal(t, []int{1, 2, 3}, MonthRange(1, 3))
	assert.Nil(t, MonthRange(3, 1))
}

func TestSearchQueryMatches(t *testing.T) {
	tx := Transaction{Date: "02/05/2024", Amount: 45000, Content: "Cà phê sáng", Category: "Ăn uống"}

	assert.True(t, NewSearchQuery(2024, "cà PHÊ", "", "").Matches(tx))
	assert.True(t, NewSearchQuery(2024, "", "45.000", "Ăn uống").Matches(tx))
	assert.False(t, NewSearchQuery(2023, "cà phê", "", "").Matches(tx))
	assert.False(t, NewSearchQuery(2024, "", "45001", "").Matches(tx))
	assert.False(t, NewSearchQuery(2024, "", "", "Di chuyển").Matches(tx))
}
