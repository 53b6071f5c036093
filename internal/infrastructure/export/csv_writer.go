// Package export writes decorated search results as spreadsheet-friendly CSV reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shelflens/backend/internal/domain"
	"github.com/shelflens/backend/internal/usecase"
)

const (
	maxSlugLength = 80
	fallbackSlug  = "busca"
	timestampForm = "20060102_150405"
)

// utf8BOM lets spreadsheet tools detect the encoding of accented titles
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	slugSpacePattern   = regexp.MustCompile(`\s+`)
	slugInvalidPattern = regexp.MustCompile(`[^a-z0-9_\-]+`)
)

// Columns is the report header, in order
var Columns = []string{
	"source", "keyword", "title", "price", "price_raw", "original_price", "seller",
	"identifier", "rating", "reviews", "sponsored", "position", "link",
	"brand", "brand_display", "brand_score", "brand_method",
	"price_outlier", "price_index", "discount", "price_score", "promo_score",
	"attractiveness_score", "visibility_score", "quality_score", "relevance_score",
}

// Slugify turns a keyword into a file-name-safe token
func Slugify(keyword string) string {
	s := strings.ToLower(strings.TrimSpace(keyword))
	s = slugSpacePattern.ReplaceAllString(s, "_")
	s = slugInvalidPattern.ReplaceAllString(s, "")
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

// ReportPath returns dir/resultado_amazon_{slug}_{YYYYMMDD_HHMMSS}.csv
func ReportPath(dir, keyword string, at time.Time) string {
	name := fmt.Sprintf("resultado_amazon_%s_%s.csv", Slugify(keyword), at.Format(timestampForm))
	return filepath.Join(dir, name)
}

// WriteReport creates the report for result under dir and returns its path
func WriteReport(dir string, result *domain.SearchResult, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := ReportPath(dir, result.Keyword, at)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report: %w", err)
	}

	if err := Write(f, result.Listings); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing report: %w", err)
	}
	return path, nil
}

// Write emits the BOM, the header and one row per listing
func Write(w io.Writer, listings []domain.ScoredListing) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	for _, l := range listings {
		if err := cw.Write(row(l)); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func row(l domain.ScoredListing) []string {
	brand := l.Brand.BrandName()
	display := ""
	if brand != "" {
		display = usecase.FormatBrandTitleCase(brand)
	}

	return []string{
		l.Source,
		l.Keyword,
		l.Title,
		formatFloat(l.Price),
		l.PriceRaw,
		formatFloat(l.OriginalPrice),
		l.Seller,
		l.Identifier,
		formatFloat(l.Rating),
		formatInt(l.ReviewCount),
		strconv.FormatBool(l.Sponsored),
		formatInt(l.Position),
		l.Link,
		brand,
		display,
		formatFloat(l.Brand.Score),
		string(l.Brand.Method),
		strconv.FormatBool(l.PriceOutlier),
		formatFloat(l.PriceIndex),
		strconv.FormatFloat(l.DiscountFraction, 'f', -1, 64),
		formatFloat(l.PriceScore),
		formatFloat(l.PromoScore),
		formatFloat(l.AttractivenessScore),
		formatFloat(l.VisibilityScore),
		formatFloat(l.QualityScore),
		formatFloat(l.RelevanceScore),
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
