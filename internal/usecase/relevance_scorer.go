package usecase

import (
	"math"
	"sort"

	"github.com/shelflens/backend/internal/domain"
	"github.com/shelflens/backend/internal/metrics"
)

// Outlier detection
const (
	minOutlierSample = 4
	iqrFence         = 1.5
)

// Sub-score curves
const (
	priceDecaySpan     = 0.5  // 50% above the median drives the price score to 0
	promoSaturation    = 0.30 // a 30% discount saturates the promo score
	reviewSaturation   = 100.0
	maxRating          = 5.0
	attractPriceWeight = 0.7
	attractPromoWeight = 0.3
)

// Relevance blend
const (
	visibilityWeight     = 0.4
	qualityWeight        = 0.3
	attractivenessWeight = 0.3
)

// RelevanceScorer decorates a whole batch of listings with relevance scores.
// Price outliers, the median price and the deepest position are batch statistics,
// so Score must see every listing of the batch in one call.
type RelevanceScorer struct{}

// NewRelevanceScorer creates a relevance scorer
func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{}
}

// Score computes outlier flags and sub-scores for every listing in place and returns
// the same slice. Missing or unusable inputs leave the affected scores nil.
func (s *RelevanceScorer) Score(listings []domain.ScoredListing) []domain.ScoredListing {
	metrics.ScoredBatchSize.Observe(float64(len(listings)))
	if len(listings) == 0 {
		return listings
	}

	outliers := priceOutliers(listings)
	median, hasMedian := referencePrice(listings, outliers)
	maxPos, hasPositions := deepestPosition(listings)

	for i := range listings {
		l := &listings[i]
		sc := domain.Scores{PriceOutlier: outliers[i]}

		if hasMedian && validNumber(l.Price) {
			sc.PriceIndex = ptr(*l.Price / median)
		}

		sc.DiscountFraction = discountFraction(l.Price, l.OriginalPrice)

		if sc.PriceIndex != nil {
			sc.PriceScore = ptr(priceScore(*sc.PriceIndex))
		}

		promo := clamp01(sc.DiscountFraction / promoSaturation)
		sc.PromoScore = ptr(promo)

		if sc.PriceScore != nil {
			sc.AttractivenessScore = ptr(attractPriceWeight**sc.PriceScore + attractPromoWeight*promo)
		}

		if hasPositions && l.Position != nil {
			sc.VisibilityScore = ptr(clamp01(float64(maxPos-*l.Position+1) / float64(maxPos)))
		}

		if q, ok := qualityScore(l.Rating, l.ReviewCount); ok {
			sc.QualityScore = ptr(q)
		}

		if sc.VisibilityScore != nil || sc.QualityScore != nil || sc.AttractivenessScore != nil {
			relevance := visibilityWeight*valueOrZero(sc.VisibilityScore) +
				qualityWeight*valueOrZero(sc.QualityScore) +
				attractivenessWeight*valueOrZero(sc.AttractivenessScore)
			sc.RelevanceScore = ptr(relevance)
		}

		l.Scores = sc
	}

	return listings
}

// priceOutliers flags prices outside the 1.5·IQR fences. Fewer than four prices or a
// zero IQR flags nothing.
func priceOutliers(listings []domain.ScoredListing) []bool {
	flags := make([]bool, len(listings))

	prices := numericPrices(listings, nil)
	if len(prices) < minOutlierSample {
		return flags
	}

	sort.Float64s(prices)
	q1 := quantile(prices, 0.25)
	q3 := quantile(prices, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return flags
	}

	lower := q1 - iqrFence*iqr
	upper := q3 + iqrFence*iqr
	for i, l := range listings {
		if validNumber(l.Price) && (*l.Price < lower || *l.Price > upper) {
			flags[i] = true
		}
	}
	return flags
}

// referencePrice is the median of non-outlier prices, or of all prices when every
// priced listing is an outlier. A non-positive median is unusable.
func referencePrice(listings []domain.ScoredListing, outliers []bool) (float64, bool) {
	prices := numericPrices(listings, outliers)
	if len(prices) == 0 {
		prices = numericPrices(listings, nil)
	}
	if len(prices) == 0 {
		return 0, false
	}

	sort.Float64s(prices)
	median := quantile(prices, 0.5)
	if median <= 0 {
		return 0, false
	}
	return median, true
}

// numericPrices collects usable prices, skipping flagged listings when skip is given
func numericPrices(listings []domain.ScoredListing, skip []bool) []float64 {
	prices := make([]float64, 0, len(listings))
	for i, l := range listings {
		if skip != nil && skip[i] {
			continue
		}
		if validNumber(l.Price) {
			prices = append(prices, *l.Price)
		}
	}
	return prices
}

// quantile interpolates linearly between closest ranks of an ascending slice
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func deepestPosition(listings []domain.ScoredListing) (int, bool) {
	maxPos := 0
	found := false
	for _, l := range listings {
		if l.Position == nil {
			continue
		}
		if !found || *l.Position > maxPos {
			maxPos = *l.Position
			found = true
		}
	}
	return maxPos, found && maxPos > 0
}

// discountFraction is (original-current)/original when the list price is above the price
func discountFraction(price, original *float64) float64 {
	if !validNumber(price) || !validNumber(original) {
		return 0
	}
	if *original <= 0 || *original <= *price {
		return 0
	}
	return (*original - *price) / *original
}

func priceScore(priceIndex float64) float64 {
	if priceIndex <= 1 {
		return 1
	}
	return clamp01(1 - (priceIndex-1)/priceDecaySpan)
}

// qualityScore multiplies the normalized rating by a log curve over the review count
// that saturates around 100 reviews
func qualityScore(rating *float64, reviews *int) (float64, bool) {
	if !validNumber(rating) || *rating <= 0 || reviews == nil || *reviews < 0 {
		return 0, false
	}

	ratingComponent := *rating / maxRating
	reviewComponent := math.Log1p(float64(*reviews)) / math.Log1p(reviewSaturation)
	if math.IsNaN(reviewComponent) || math.IsInf(reviewComponent, 0) {
		reviewComponent = 0
	}
	reviewComponent = math.Min(1, reviewComponent)

	return clamp01(ratingComponent * reviewComponent), true
}

func validNumber(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func ptr[T any](v T) *T {
	return &v
}
