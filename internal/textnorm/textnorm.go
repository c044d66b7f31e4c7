// Package textnorm normalises learner input for answer checking and search.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Match is the outcome of comparing an answer with the accepted ones.
type Match int

const (
	// NoMatch means the answer differs from every accepted answer.
	NoMatch Match = iota
	// AccentMismatch means the answer only differs in diacritics (a vs á).
	AccentMismatch
	// Exact means the answer matches after case and punctuation folding.
	Exact
)

// Normalize lowercases s, composes it to NFC, drops surrounding punctuation
// and collapses inner whitespace.
func Normalize(s string) string {
	s = norm.NFC.String(strings.ToLower(s))
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return strings.Join(strings.Fields(s), " ")
}

// Fold is Normalize followed by diacritic removal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, Normalize(s))
	if err != nil {
		return Normalize(s)
	}
	return out
}

// Compare checks answer against every accepted answer and returns the best match.
func Compare(answer string, accepted []string) Match {
	got := Normalize(answer)
	if got == "" {
		return NoMatch
	}
	best := NoMatch
	folded := Fold(answer)
	for _, a := range accepted {
		if Normalize(a) == got {
			return Exact
		}
		if Fold(a) == folded {
			best = AccentMismatch
		}
	}
	return best
}
