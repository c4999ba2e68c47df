package util

import "golang.org/x/text/unicode/norm"

// Normalize maps s to its NFKD form so that visually identical input typed on
// different platforms derives the same key.
func Normalize(s string) string {
	return norm.NFKD.String(s)
}
