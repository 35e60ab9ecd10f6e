package feature

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokens normalizes text for interaction features: lowercase, punctuation
// stripped, tokens of length <= 2 discarded. Unicode letters and digits are
// kept so non-Latin corpora tokenize the same way the trainer does.
func Tokens(text string) []string {
	raw := splitWords(text)
	out := raw[:0]
	for _, w := range raw {
		if utf8.RuneCountInString(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// TokenSet is Tokens as a membership set.
func TokenSet(text string) map[string]struct{} {
	toks := Tokens(text)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

// WordCount counts words without the interaction-feature length filter.
// Document word counts keep short words.
func WordCount(text string) int {
	return len(splitWords(text))
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// truncateRunes returns the first n runes of s, UTF-8 safe.
func truncateRunes(s string, n int) string {
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
