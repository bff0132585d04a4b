package xstrings

import (
	"strings"
	"unicode/utf8"
)

// SplitList parses a separated list such as "a.example, b.example,," into
// its trimmed, non-empty items.
func SplitList(s, sep string) []string {
	return Compact(strings.Split(s, sep))
}

// Compact trims every item and drops the empty ones.
func Compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Truncate cuts s to at most n runes and marks the cut with "...".
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
