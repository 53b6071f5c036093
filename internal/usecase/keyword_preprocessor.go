package usecase

import (
	"regexp"
	"strings"

	"github.com/apex/log"
)

const (
	// maxKeywordLength caps the query sent to the provider
	maxKeywordLength = 100

	// minKeywordCut is the shortest prefix a word-boundary cut may leave
	minKeywordCut = 50
)

var (
	// Control characters and zero-width marks pasted in from spreadsheets
	invisibleRunePattern = regexp.MustCompile(`[\p{Cc}\p{Cf}]`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// KeywordPreprocessor cleans user-supplied search keywords before they reach the provider
// or become part of a cache key
type KeywordPreprocessor struct {
	enableDebugLogging bool
}

// NewKeywordPreprocessor creates a new keyword preprocessor
func NewKeywordPreprocessor(enableDebugLogging bool) *KeywordPreprocessor {
	return &KeywordPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// Preprocess strips invisible characters, collapses whitespace and limits the keyword
// length, cutting at a word boundary when one is close enough to the limit
func (p *KeywordPreprocessor) Preprocess(keyword string) string {
	if keyword == "" {
		return ""
	}

	original := keyword

	cleaned := invisibleRunePattern.ReplaceAllString(keyword, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if runes := []rune(cleaned); len(runes) > maxKeywordLength {
		cleaned = string(runes[:maxKeywordLength])
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > minKeywordCut {
			cleaned = cleaned[:lastSpace]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	if p.enableDebugLogging {
		log.WithFields(log.Fields{
			"component": "search",
			"input":     original,
			"output":    cleaned,
		}).Debug("keyword preprocessed")
	}

	return cleaned
}

// CacheKeyPart normalizes a keyword for use inside a cache key, so that "Mop Spray" and
// "mop  spray" share cached pages
func CacheKeyPart(keyword string) string {
	return strings.ToLower(strings.ReplaceAll(Normalize(keyword), " ", "_"))
}
