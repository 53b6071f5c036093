package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// sharpS has no single-letter uppercase form
var sharpS = strings.NewReplacer("ß", "SS", "ẞ", "SS")

// Normalize canonicalizes free text for brand comparison: accents are stripped,
// letters uppercased, and every run of characters outside [A-Z0-9] collapses to a
// single space. The result is trimmed and normalizing it again is a no-op.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// transform chains carry internal buffers and are not safe to share across goroutines
	stripAccents := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(stripAccents, text)
	if err != nil {
		stripped = text
	}
	upper := sharpS.Replace(strings.ToUpper(stripped))

	var b strings.Builder
	b.Grow(len(upper))
	pendingSpace := false
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	return b.String()
}

// containsDigit reports whether s has at least one ASCII digit
func containsDigit(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}
