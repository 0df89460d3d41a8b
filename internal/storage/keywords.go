package storage

import "strings"

// MergeKeywords appends the entries of add missing from current, comparing
// without case. Order is kept.
func MergeKeywords(current, add []string) []string {
	out := append([]string(nil), current...)
	seen := make(map[string]struct{}, len(current)+len(add))
	for _, k := range current {
		seen[strings.ToLower(k)] = struct{}{}
	}
	for _, k := range add {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(k)]; dup {
			continue
		}
		seen[strings.ToLower(k)] = struct{}{}
		out = append(out, k)
	}
	return out
}

// RemoveKeyword drops keyword (ignoring case) and reports whether it was there.
func RemoveKeyword(current []string, keyword string) ([]string, bool) {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	out := make([]string, 0, len(current))
	found := false
	for _, k := range current {
		if strings.ToLower(k) == needle {
			found = true
			continue
		}
		out = append(out, k)
	}
	return out, found
}
