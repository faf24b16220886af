package utils

import (
	"fmt"
	"strings"
)

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return fmt.Sprintf("%s...", string(r[:n-3]))
}

// IsPlaceholderTicker reports whether ticker is blank or a sentinel such as "NONE" or "N.A.".
func IsPlaceholderTicker(ticker string) bool {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return t == "" || t == "NONE" || t == "N.A."
}
