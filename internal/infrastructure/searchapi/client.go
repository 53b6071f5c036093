package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/apex/log"
	"golang.org/x/time/rate"

	"github.com/shelflens/backend/internal/domain"
	"github.com/shelflens/backend/internal/metrics"
)

const (
	// DefaultBaseURL is the SearchAPI search endpoint
	DefaultBaseURL = "https://www.searchapi.io/api/v1/search"

	// DefaultEngine selects Amazon product search
	DefaultEngine = "amazon_search"

	maxAttempts  = 3
	baseBackoff  = 500 * time.Millisecond
	maxBodyBytes = 10 << 20
)

// ClientConfig holds the SearchAPI connection settings
type ClientConfig struct {
	APIKey          string
	BaseURL         string
	Engine          string
	Timeout         time.Duration
	RequestsPerHour int
}

// Client fetches Amazon search result pages through SearchAPI
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	engine      string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new SearchAPI client
func NewClient(config ClientConfig) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	engine := config.Engine
	if engine == "" {
		engine = DefaultEngine
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// rate.Limit is requests per second
	perHour := config.RequestsPerHour
	if perHour <= 0 {
		perHour = 120
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perHour)/3600), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      config.APIKey,
		baseURL:     baseURL,
		engine:      engine,
		rateLimiter: limiter,
	}
}

// SetDebug enables or disables request tracing
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return baseBackoff * time.Duration(1<<(attempt-1))
}

func (c *Client) logger() *log.Entry {
	return log.WithField("component", "searchapi")
}

// buildURL assembles the GET request for one result page
func (c *Client) buildURL(query domain.SearchQuery) string {
	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", query.Keyword)
	params.Set("api_key", c.apiKey)
	if query.AmazonDomain != "" {
		params.Set("amazon_domain", query.AmazonDomain)
	}
	if query.Language != "" {
		params.Set("language", query.Language)
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.Filter != "" {
		params.Set("rh", query.Filter)
	}
	return fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ShelfLens/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}
	return resp, nil
}

// SearchListings fetches one page of results and returns the decoded JSON object as-is.
// Transport errors, 5xx and 429 are retried with exponential backoff; other 4xx fail at once.
func (c *Client) SearchListings(ctx context.Context, query domain.SearchQuery) (map[string]interface{}, error) {
	if query.Keyword == "" {
		return nil, domain.ErrInvalidRequest
	}

	entry := c.logger().WithFields(log.Fields{"keyword": query.Keyword, "page": query.Page})
	reqURL := c.buildURL(query)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, exponentialBackoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			metrics.SearchAPIRequests.WithLabelValues("rate_limited").Inc()
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		if c.debug {
			entry.WithField("attempt", attempt).Debug("requesting page")
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			entry.WithError(err).WithField("attempt", attempt).Warn("request error")
			metrics.SearchAPIRequests.WithLabelValues("error").Inc()
			lastErr = err
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if readErr != nil {
			metrics.SearchAPIRequests.WithLabelValues("error").Inc()
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrSearchAPIFailure, readErr)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			entry.WithFields(log.Fields{
				"attempt": attempt,
				"status":  resp.StatusCode,
				"body":    truncate(string(body), 300),
			}).Warn("API error")
			metrics.SearchAPIRequests.WithLabelValues("http_" + strconv.Itoa(resp.StatusCode)).Inc()

			lastErr = fmt.Errorf("%w: status %d", domain.ErrSearchAPIFailure, resp.StatusCode)
			if !retryableStatus(resp.StatusCode) {
				return nil, lastErr
			}
			continue
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			entry.WithError(err).Error("JSON decode error")
			metrics.SearchAPIRequests.WithLabelValues("decode_error").Inc()
			return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrSearchAPIFailure, err)
		}

		metrics.SearchAPIRequests.WithLabelValues("ok").Inc()
		if c.debug {
			entry.WithField("schema", SchemaSummary(payload)).Debug("page received")
		}
		return payload, nil
	}

	entry.Error("all retries failed")
	return nil, lastErr
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ domain.SearchClient = (*Client)(nil)
