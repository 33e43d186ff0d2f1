// Package utils provides shared helpers for logging and text.
package utils

// Truncate returns s cut to at most maxLen characters, with "..." appended if truncated.
// Counts runes, so multi-byte text is never split mid-character.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
