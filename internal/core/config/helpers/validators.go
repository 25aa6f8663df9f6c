package helpers

import (
	"os"
	"strings"
)

func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]{}")
}

// IsPathOverlap reports whether a equals b or one contains the other.
func IsPathOverlap(a, b string) bool {
	if a == b {
		return true
	}
	if strings.HasPrefix(a, b+string(os.PathSeparator)) {
		return true
	}
	if strings.HasPrefix(b, a+string(os.PathSeparator)) {
		return true
	}
	return false
}

// WildcardPrefix is the literal part of a pattern before its first wildcard.
func WildcardPrefix(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[]{}")
	if idx == -1 {
		return pattern
	}
	return pattern[:idx]
}
