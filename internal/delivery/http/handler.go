package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/shelflens/backend/internal/domain"
	"github.com/shelflens/backend/internal/usecase"
)

// ListingService is the part of the search pipeline the handlers drive
type ListingService interface {
	Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResult, error)
	MatchAndScore(ctx context.Context, listings []domain.Listing) ([]domain.ScoredListing, error)
	Matcher() *usecase.BrandMatcher
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service ListingService
}

// NewHandler creates a new HTTP handler. A nil service makes the API endpoints answer 503.
func NewHandler(service ListingService) *Handler {
	return &Handler{service: service}
}

// MatchBrandRequest asks for the brand of a single title
type MatchBrandRequest struct {
	Title     string `json:"title"`
	BrandHint string `json:"brand_hint"`
}

// MatchBrandResponse is a brand decision plus its display form
type MatchBrandResponse struct {
	domain.MatchDecision
	BrandDisplay string `json:"brandDisplay,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shelflens-backend",
		"version": "1.0.0",
	})
}

// SearchListings runs a full multi-page search
func (h *Handler) SearchListings(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Search(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MatchBrand identifies the brand of one title and optional brand hint
func (h *Handler) MatchBrand(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req MatchBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.BrandHint) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title or brand_hint is required"})
		return
	}

	decision := h.service.Matcher().Match(req.Title, req.BrandHint)
	c.JSON(http.StatusOK, MatchBrandResponse{
		MatchDecision: decision,
		BrandDisplay:  usecase.FormatBrandTitleCase(decision.BrandName()),
	})
}

// ScoreListings brand-matches and scores a caller-supplied batch of listings
func (h *Handler) ScoreListings(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var listings []domain.Listing
	if err := c.ShouldBindJSON(&listings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	scored, err := h.service.MatchAndScore(c.Request.Context(), listings)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(scored),
		"listings": scored,
	})
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search service not configured"})
		return false
	}
	return true
}

// respondError maps domain errors onto status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoResults):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrSearchAPIFailure):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"component": "http",
			"path":      c.FullPath(),
			"status":    status,
		}).Error("request failed")
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
