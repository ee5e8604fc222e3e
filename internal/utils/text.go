package utils

import "strings"

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// TruncateForLog trims s and shortens it to limit runes, marking the cut with
// an ellipsis.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if cut := Truncate(s, limit); cut != s {
		return cut + "..."
	}
	return s
}
