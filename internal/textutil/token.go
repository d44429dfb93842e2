package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Clean trims surrounding whitespace and returns the NFC form of value.
func Clean(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// Lower returns the NFC, trimmed, lowercased form of value.
func Lower(value string) string {
	cleaned := Clean(value)
	if cleaned == "" {
		return ""
	}
	// Casers are stateful; never share one between goroutines.
	return cases.Lower(language.Und).String(cleaned)
}

// Token lowercases value and collapses every run of whitespace, hyphens and
// underscores into a single underscore. Leading and trailing separators are
// dropped. "Director's  Cut" becomes "director's_cut".
func Token(value string) string {
	lowered := Lower(value)
	if lowered == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(lowered))
	pending := false
	for _, r := range lowered {
		if unicode.IsSpace(r) || r == '-' || r == '_' {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('_')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
