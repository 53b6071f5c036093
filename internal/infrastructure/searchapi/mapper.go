package searchapi

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shelflens/backend/internal/domain"
)

// SourceAmazonSearch tags listings extracted from SearchAPI's Amazon engine
const SourceAmazonSearch = "amazon_search"

// Keys tried, in order, when locating fields inside provider objects
var (
	resultListKeys    = []string{"search_results", "organic_results", "results", "products", "product_results", "amazon_results"}
	titleKeys         = []string{"title", "name", "product_title", "product"}
	priceKeys         = []string{"price", "price_total", "price_value", "current_price", "final_price", "extracted_price"}
	priceValueKeys    = []string{"value", "raw", "text", "amount"}
	priceDisplayKeys  = []string{"raw", "text", "value", "display", "symbol"}
	originalPriceKeys = []string{"original_price", "list_price", "was_price", "old_price", "extracted_original_price", "before_price"}
	linkKeys          = []string{"link", "url", "product_link", "product_url"}
	identifierKeys    = []string{"asin", "product_id", "id"}
	sellerKeys        = []string{"seller", "merchant", "store", "seller_name", "sold_by", "brand"}
	ratingKeys        = []string{"rating", "stars", "avg_rating"}
	reviewKeys        = []string{"reviews", "review_count", "ratings_total", "total_reviews"}
	sponsoredKeys     = []string{"sponsored", "is_sponsored", "ad", "ads"}

	fallbackTitleKeys = []string{"title", "name", "product_title"}
	fallbackPriceKeys = []string{"price", "current_price", "final_price"}
)

// Fallback list detection ratios
const (
	minTitleShare = 0.3
	minPriceShare = 0.1
)

var (
	numericRunPattern = regexp.MustCompile(`\d+[\d.,]*`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
)

var truthyStrings = map[string]bool{
	"true":        true,
	"yes":         true,
	"1":           true,
	"sim":         true,
	"sponsored":   true,
	"patrocinado": true,
}

// FindResultsList locates the list of result objects in a provider response.
// Known keys are tried first, then the first list of objects that looks like products.
func FindResultsList(resp map[string]interface{}) []map[string]interface{} {
	for _, key := range resultListKeys {
		if items, ok := objectList(resp[key]); ok {
			return items
		}
	}

	// map iteration order is random; scan keys sorted for a stable choice
	keys := make([]string, 0, len(resp))
	for k := range resp {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		items, ok := objectList(resp[key])
		if !ok {
			continue
		}
		var titles, prices int
		for _, item := range items {
			if pick(item, fallbackTitleKeys) != nil {
				titles++
			}
			if pick(item, fallbackPriceKeys) != nil {
				prices++
			}
		}
		n := float64(len(items))
		if float64(titles)/n >= minTitleShare && float64(prices)/n >= minPriceShare {
			return items
		}
	}

	return nil
}

// ExtractListings maps every result object to a domain.Listing. Positions are page-local
// and 1-based; the caller turns them into global positions across pages.
func ExtractListings(resp map[string]interface{}, keyword, source string) []domain.Listing {
	if source == "" {
		source = SourceAmazonSearch
	}

	items := FindResultsList(resp)
	listings := make([]domain.Listing, 0, len(items))

	for i, item := range items {
		price, priceRaw := extractPrice(item, priceKeys)
		original, _ := extractPrice(item, originalPriceKeys)
		position := i + 1

		listings = append(listings, domain.Listing{
			Source:        source,
			Keyword:       keyword,
			Title:         asString(pick(item, titleKeys)),
			Price:         price,
			PriceRaw:      priceRaw,
			OriginalPrice: original,
			Seller:        asString(pick(item, sellerKeys)),
			Identifier:    asString(pick(item, identifierKeys)),
			Rating:        ParsePrice(pick(item, ratingKeys)),
			ReviewCount:   ParseCount(pick(item, reviewKeys)),
			Sponsored:     parseSponsored(pick(item, sponsoredKeys)),
			Position:      &position,
			Link:          asString(pick(item, linkKeys)),
		})
	}

	return listings
}

// SchemaSummary describes the shape of a response for diagnostics without dumping it
func SchemaSummary(resp map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(resp))
	for k := range resp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 50 {
		keys = keys[:50]
	}

	summary := map[string]interface{}{"keys": keys}
	for _, k := range []string{"search_results", "organic_results", "results"} {
		if list, ok := resp[k].([]interface{}); ok {
			summary["len_"+k] = len(list)
		} else {
			summary["len_"+k] = nil
		}
	}
	return summary
}

// extractPrice returns the parsed price and its display text. Nested price objects are
// read through their value/raw/text fields.
func extractPrice(item map[string]interface{}, keys []string) (*float64, string) {
	value := pick(item, keys)
	if value == nil {
		return nil, ""
	}
	if obj, ok := value.(map[string]interface{}); ok {
		return ParsePrice(pick(obj, priceValueKeys)), asString(pick(obj, priceDisplayKeys))
	}
	return ParsePrice(value), asString(value)
}

// ParsePrice reads a number out of a JSON value or price text such as "R$ 1.234,56" or
// "$1,234.56". When both separators appear the later one is the decimal point; a lone
// comma is a decimal comma. Returns nil when no number can be read.
func ParsePrice(value interface{}) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case bool:
		return nil
	}

	run := numericRunPattern.FindString(strings.TrimSpace(asString(value)))
	if run == "" {
		return nil
	}

	d, err := decimal.NewFromString(normalizeSeparators(run))
	if err != nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

func normalizeSeparators(num string) string {
	lastComma := strings.LastIndex(num, ",")
	lastDot := strings.LastIndex(num, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			num = strings.ReplaceAll(num, ".", "")
			return strings.Replace(num, ",", ".", 1)
		}
		return strings.ReplaceAll(num, ",", "")
	case lastComma >= 0:
		if strings.Count(num, ",") > 1 {
			return strings.ReplaceAll(num, ",", "")
		}
		return strings.Replace(num, ",", ".", 1)
	case strings.Count(num, ".") > 1:
		return strings.ReplaceAll(num, ".", "")
	}
	return strings.TrimRight(num, ".")
}

// ParseCount keeps only the digits of a review count such as "1.234 avaliações"
func ParseCount(value interface{}) *int {
	switch v := value.(type) {
	case nil, bool:
		return nil
	case float64:
		n := int(v)
		return &n
	case int:
		return &v
	}

	digits := nonDigitPattern.ReplaceAllString(asString(value), "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

func parseSponsored(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return truthyStrings[strings.ToLower(strings.TrimSpace(v))]
	case float64:
		return v != 0
	}
	return true
}

// pick returns the first value under keys that is neither null nor an empty string
func pick(item map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		v, ok := item[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v
	}
	return nil
}

func objectList(value interface{}) ([]map[string]interface{}, bool) {
	list, ok := value.([]interface{})
	if !ok || len(list) == 0 {
		return nil, false
	}
	items := make([]map[string]interface{}, 0, len(list))
	for _, v := range list {
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		items = append(items, obj)
	}
	return items, true
}

func asString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}
