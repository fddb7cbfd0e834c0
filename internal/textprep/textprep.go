// Package textprep normalizes raw resume text into the canonical token stream
// consumed by the vectorizer.
package textprep

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlPattern     = regexp.MustCompile(`http\S+|www\S+`)
	emailPattern   = regexp.MustCompile(`\S+@\S+`)
	nonAlphaSpaces = regexp.MustCompile(`[^a-z\s]`)
)

// asciiSpace folds non-ASCII whitespace and the \x1c-\x1f separators to ' '
// so that \S in the patterns stops at them.
func asciiSpace(r rune) rune {
	if (r > unicode.MaxASCII && unicode.IsSpace(r)) || (r >= 0x1c && r <= 0x1f) {
		return ' '
	}
	return r
}

// Preprocess lowercases text, strips URLs and email addresses, replaces every
// character outside [a-z] and whitespace with a space and collapses runs of
// whitespace. The result holds only lowercase ASCII letters separated by
// single spaces.
//
// Preprocess is pure and idempotent: Preprocess(Preprocess(x)) == Preprocess(x).
func Preprocess(text string) string {
	if text == "" {
		return ""
	}
	text = strings.Map(asciiSpace, strings.ToLower(text))
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")
	text = nonAlphaSpaces.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// PreprocessAll applies Preprocess to every document, preserving order.
func PreprocessAll(docs []string) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = Preprocess(d)
	}
	return out
}
