package mastplan

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
	httpClient   *http.Client
	rps          float64
	userAgent    string

	service         string
	resolverService string
	maxFullFetch    int64
	maxTargets      int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithBaseURL points the client at another MAST portal (default https://mast.stsci.edu).
func WithBaseURL(u string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = u
	})
}

// WithTimeout sets the per-query deadline, including EXECUTING polls.
// Default: 60s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithPollInterval sets the wait between polls of an EXECUTING query.
// Default: 500ms.
func WithPollInterval(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.pollInterval = d
	})
}

// WithHTTPClient replaces the HTTP client used for archive calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithRateLimit caps outgoing archive requests per second. 0 disables the limit (default).
func WithRateLimit(rps float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.rps = rps
	})
}

// WithUserAgent sets the User-Agent header sent to the archive.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithService overrides the filtered position service name.
// Default: Mast.Caom.Filtered.Position.
func WithService(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.service = name
	})
}

// WithResolverService overrides the name lookup service.
// Default: Mast.Name.Lookup.
func WithResolverService(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.resolverService = name
	})
}

// WithMaxFullFetch sets the largest count for which records are fetched.
// Default: 1000.
func WithMaxFullFetch(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxFullFetch = n
	})
}

// WithMaxTargets limits the number of names accepted by Check.
// Default: 100.
func WithMaxTargets(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTargets = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
