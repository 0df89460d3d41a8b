package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeAndRemoveKeywords(t *testing.T) {
	merged := MergeKeywords([]string{"phở"}, []string{" bún ", "PHỞ", "", "bún"})
	assert.Equal(t, []string{"phở", "bún"}, merged)

	rest, ok := RemoveKeyword(merged, "Phở")
	assert.True(t, ok)
	assert.Equal(t, []string{"bún"}, rest)

	_, ok = RemoveKeyword(rest, "cơm")
	assert.False(t, ok)
}
