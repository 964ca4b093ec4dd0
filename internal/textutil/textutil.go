// Package textutil holds the shared text normalization helpers used by the
// classifier, the similarity engine, and the sufficiency analyzer. Keeping
// them in one place guarantees that topic names and question text are
// normalized the same way everywhere.
package textutil

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and flattens snake/kebab separators and
// whitespace runs into single spaces. Punctuation is kept; use Tokenize
// when you need a clean token stream.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTopic reduces a topic name to lowercase alphanumerics separated
// by single spaces. "Req_Eng", "req-eng" and "Req  Eng!" all normalize to
// "req eng".
func NormalizeTopic(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize lowercases text, replaces every non-alphanumeric rune with a
// space, and returns the resulting tokens. Empty input yields nil.
func Tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Words splits lowercased text on whitespace without stripping punctuation.
func Words(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// SentenceCount counts non-empty segments after splitting on '.', '!' and '?'.
func SentenceCount(s string) int {
	count := 0
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(seg) != "" {
			count++
		}
	}
	return count
}

// SyllableEstimate approximates the syllable count of a word by counting
// maximal vowel runs, with a minimum of one.
func SyllableEstimate(word string) int {
	word = strings.ToLower(word)
	count := 0
	inRun := false
	for _, r := range word {
		if isVowel(r) {
			if !inRun {
				count++
			}
			inRun = true
		} else {
			inRun = false
		}
	}
	if count < 1 {
		return 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// Hash32 is the polynomial rolling hash used for fingerprint bucketing:
// h = h*31 + code, wrapped to a signed 32-bit word. The wrap behavior is
// part of the contract; fingerprints from other implementations of the same
// hash must land in the same buckets.
func Hash32(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

// Bucket maps a token to a fingerprint bucket in [0, size) by taking the
// absolute value of its 32-bit hash modulo size.
func Bucket(token string, size int) int {
	v := int64(Hash32(token))
	if v < 0 {
		v = -v
	}
	return int(v % int64(size))
}
