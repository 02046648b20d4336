package logzship

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/logzship/internal/ports"
	"github.com/bft-labs/logzship/pkg/log"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = log.Logger

// StatusReporter receives the transport's progress and failure notices.
type StatusReporter = ports.StatusReporter

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       log.Logger
	reporter     ports.StatusReporter
	registerer   prometheus.Registerer
	retryInitial time.Duration
	retryMax     time.Duration
	userAgent    string
}

func defaultOptions() options {
	return options{
		logger:    log.NewNoopLogger(),
		userAgent: "logzship/" + Version,
	}
}

// WithHTTPClient sets a custom HTTP client for listener requests.
// If not provided, a client honoring the configured timeouts is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReporter sets the receiver of transport status notices.
// If not provided, notices are logged through the configured logger.
func WithReporter(reporter StatusReporter) Option {
	return func(o *options) {
		o.reporter = reporter
	}
}

// WithMetrics registers dispatch counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithRetryDelay sets the backoff bounds between transport attempts.
func WithRetryDelay(initial, max time.Duration) Option {
	return func(o *options) {
		o.retryInitial = initial
		o.retryMax = max
	}
}

// WithUserAgent overrides the User-Agent header sent to the listener.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}
