package http

import (
	"strings"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseTxType accepts the stored type names and their English aliases.
// An empty value stays empty.
func parseTxType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "thu", "thu nhập":
		return "Thu nhập"
	case "expense", "chi", "chi tiêu":
		return "Chi tiêu"
	}
	return s
}
