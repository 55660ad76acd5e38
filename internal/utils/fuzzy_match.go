package utils

import (
	"strings"
)

// ContainsFold reports whether haystack contains needle, ignoring case.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}

// FirstTitleMatch returns the index of the first title containing any of the
// needles, or -1. Needles are checked in order for each title.
func FirstTitleMatch(titles []string, needles ...string) int {
	for i, title := range titles {
		for _, needle := range needles {
			if ContainsFold(title, needle) {
				return i
			}
		}
	}
	return -1
}

// NormalizeQuery lowercases a query and collapses whitespace, for use in cache keys
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
