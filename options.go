package ccidex

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorPolicy selects how upstream 400+ search responses are reported.
type ErrorPolicy string

const (
	// ErrorPolicyRaise returns upstream failures as errors.
	ErrorPolicyRaise ErrorPolicy = "raise"
	// ErrorPolicyWarn logs upstream failures and degrades to empty results.
	ErrorPolicyWarn ErrorPolicy = "warn"
)

// ErrorHandler is an optional hook invoked with every upstream 400+ search
// response.
type ErrorHandler func(status int, url string, body []byte)

type clientConfig struct {
	endpoint      string
	parent        string
	pageSize      int
	concurrency   int
	httpc         *http.Client
	logger        *zap.Logger
	policy        ErrorPolicy
	onError       ErrorHandler
	exclusions    []string
	exclusionFile string
}

// Option configures a Client.
type Option func(*clientConfig)

// WithEndpoint overrides the federated search endpoint URL.
func WithEndpoint(url string) Option {
	return func(c *clientConfig) { c.endpoint = url }
}

// WithParent overrides the parent collection identifier.
func WithParent(parent string) Option {
	return func(c *clientConfig) { c.parent = parent }
}

// WithPageSize overrides the search page size.
func WithPageSize(n int) Option {
	return func(c *clientConfig) { c.pageSize = n }
}

// WithConcurrency bounds the number of dataset groups processed in parallel
// during discovery.
func WithConcurrency(n int) Option {
	return func(c *clientConfig) { c.concurrency = n }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *clientConfig) { c.httpc = httpc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithErrorPolicy sets the instance-wide policy for upstream 400+ responses.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(c *clientConfig) { c.policy = p }
}

// WithErrorHandler sets the hook invoked with upstream 400+ responses.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *clientConfig) { c.onError = h }
}

// WithExclusions suppresses the given identifiers from discovery output.
func WithExclusions(ids []string) Option {
	return func(c *clientConfig) { c.exclusions = append(c.exclusions, ids...) }
}

// WithExclusionFile loads identifiers to suppress from a newline-delimited
// file.
func WithExclusionFile(path string) Option {
	return func(c *clientConfig) { c.exclusionFile = path }
}
