package crawler

import "strings"

const trailingCutset = ".,; "

// TrimTrailing strips trailing '.', ',', ';' and spaces.
func TrimTrailing(s string) string {
	return strings.TrimRight(s, trailingCutset)
}

// ContainsFold reports whether needle occurs in haystack, ignoring case.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
