package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	whitespaceSplitRegex = regexp.MustCompile(`\s+`)
	brandSeparatorRegex  = regexp.MustCompile(`[-/&+]`)
)

// FormatBrandTitleCase renders a canonical brand for display: each word gets an uppercase
// first letter and lowercase rest. Words carrying digits ("3M") are left as they are,
// single letters are uppercased, and - / & + and apostrophes are kept in place.
func FormatBrandTitleCase(brand string) string {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return ""
	}

	gaps := whitespaceSplitRegex.FindAllString(brand, -1)
	words := whitespaceSplitRegex.Split(brand, -1)

	var b strings.Builder
	for i, word := range words {
		b.WriteString(formatBrandWord(word))
		if i < len(gaps) {
			b.WriteString(gaps[i])
		}
	}
	return b.String()
}

// formatBrandWord title-cases each piece between separators, preserving the separators
func formatBrandWord(word string) string {
	seps := brandSeparatorRegex.FindAllString(word, -1)
	pieces := brandSeparatorRegex.Split(word, -1)

	var b strings.Builder
	for i, piece := range pieces {
		parts := strings.Split(piece, "'")
		for j, part := range parts {
			parts[j] = formatBrandPiece(part)
		}
		b.WriteString(strings.Join(parts, "'"))
		if i < len(seps) {
			b.WriteString(seps[i])
		}
	}
	return b.String()
}

func formatBrandPiece(piece string) string {
	if piece == "" {
		return piece
	}
	for _, r := range piece {
		if unicode.IsDigit(r) {
			return piece
		}
	}
	first, size := utf8.DecodeRuneInString(piece)
	return string(unicode.ToUpper(first)) + strings.ToLower(piece[size:])
}
