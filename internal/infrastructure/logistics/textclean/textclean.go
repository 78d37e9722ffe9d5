// Package textclean prepares free text for warehouse systems that reject
// quote characters and limit field lengths.
package textclean

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Quotes are the characters stripped by Strip
const Quotes = "\"'`"

// DoubleQuote is the only character Pick&Pack rejects
const DoubleQuote = "\""

// Strip normalizes s to NFC, folds full-width forms to their narrow
// equivalents and removes every character listed in drop. Folding turns
// full-width quotes into ASCII ones so they are removed too.
func Strip(s, drop string) string {
	if s == "" {
		return ""
	}
	folded := width.Fold.String(norm.NFC.String(s))
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(drop, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(folded))
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
