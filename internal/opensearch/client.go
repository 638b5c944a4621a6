// Package opensearch implements the paginated client for the portal's
// federated search endpoint.
package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/metrics"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 1000

// ErrorPolicy selects how upstream 400+ responses are reported.
type ErrorPolicy string

const (
	// ErrorPolicyRaise returns upstream 400+ responses as errors.
	ErrorPolicyRaise ErrorPolicy = "raise"
	// ErrorPolicyWarn logs upstream 400+ responses and degrades to an
	// empty result.
	ErrorPolicyWarn ErrorPolicy = "warn"
)

// ErrorHandler is an optional hook invoked with every upstream 400+ response.
type ErrorHandler func(status int, url string, body []byte)

// Query holds the search parameters of one request: parentIdentifier plus
// arbitrary facet filters. Paging parameters are managed by the client.
type Query map[string]string

func (q Query) clone() Query {
	out := make(Query, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// Client issues paginated queries against a federated search endpoint.
type Client struct {
	baseURL  string
	pageSize int
	httpc    *http.Client
	logger   *zap.Logger
	policy   ErrorPolicy
	onError  ErrorHandler
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithPageSize overrides the records-per-page count.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithErrorPolicy sets the instance-wide policy for upstream 400+ responses.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(c *Client) {
		if p != "" {
			c.policy = p
		}
	}
}

// WithErrorHandler sets the hook invoked with upstream 400+ responses.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *Client) { c.onError = h }
}

// New creates a search client for the given endpoint.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		pageSize: DefaultPageSize,
		httpc:    &http.Client{},
		logger:   zap.NewNop(),
		policy:   ErrorPolicyRaise,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchAll accumulates the full result set for a query, requesting pages of
// pageSize records until a page comes back short. A transport or HTTP-level
// failure aborts the whole fetch; no partial results are returned.
func (c *Client) FetchAll(ctx context.Context, query Query) ([]domain.Feature, error) {
	var features []domain.Feature
	for page := 1; ; page++ {
		fc, ok, err := c.fetchPage(ctx, query, page, c.pageSize, false)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Upstream failure suppressed by the warn policy.
			return nil, nil
		}
		for _, f := range fc.Features {
			features = append(features, f.toDomain())
		}
		if len(fc.Features) < c.pageSize {
			return features, nil
		}
	}
}

// FetchOne requests exactly one record at the given 1-based page index,
// restricted to NetCDF granules. Returns nil when the page is empty.
func (c *Client) FetchOne(ctx context.Context, query Query, index int) (*domain.Feature, error) {
	fc, ok, err := c.fetchPage(ctx, query, index, 1, true)
	if err != nil || !ok {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}
	f := fc.Features[0].toDomain()
	return &f, nil
}

func (c *Client) fetchPage(
	ctx context.Context, query Query, page, pageSize int, netcdfOnly bool,
) (*featureCollectionDTO, bool, error) {
	q := query.clone()
	q["startPage"] = strconv.Itoa(page)
	q["maximumRecords"] = strconv.Itoa(pageSize)
	q["httpAccept"] = "application/geo+json"
	if netcdfOnly {
		q["fileFormat"] = ".nc"
	}

	body, ok, err := c.get(ctx, c.requestURL(q))
	if err != nil || !ok {
		return nil, ok, err
	}

	var fc featureCollectionDTO
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, false, fmt.Errorf("decode feature collection: %w", err)
	}
	return &fc, true, nil
}

func (c *Client) requestURL(q Query) string {
	params := url.Values{}
	for k, v := range q {
		params.Set(k, v)
	}
	return c.baseURL + "?" + params.Encode()
}

// get performs one GET round trip. The second return value is false when a
// 400+ response was suppressed by the warn policy.
func (c *Client) get(ctx context.Context, requestURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.ObserveSearchRequest("error", time.Since(start))
		return nil, false, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.ObserveSearchRequest(strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, false, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if c.onError != nil {
			c.onError(resp.StatusCode, requestURL, body)
		}
		if c.policy == ErrorPolicyWarn {
			c.logger.Warn("search request failed",
				zap.String("url", requestURL),
				zap.Int("status", resp.StatusCode),
			)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %s returned status %d", domain.ErrUpstream, requestURL, resp.StatusCode)
	}

	return body, true, nil
}
