package logzship

import (
	"context"
	"errors"
	"fmt"
	"sync"

	httpAdapter "github.com/bft-labs/logzship/internal/adapters/http"
	logAdapter "github.com/bft-labs/logzship/internal/adapters/log"
	"github.com/bft-labs/logzship/internal/adapters/metrics"
	"github.com/bft-labs/logzship/internal/app"
	"github.com/bft-labs/logzship/internal/domain"
	"github.com/bft-labs/logzship/pkg/log"
)

// Version is the module version reported in the User-Agent header.
const Version = "0.1.0"

// Config holds the listener connection parameters.
// Use DefaultConfig() to get a Config with the listener defaults.
type Config = domain.RequestOptions

// Secret holds the listener token; it never renders in logs or fmt output.
type Secret = domain.Secret

// Document is a JSON object that keeps its keys in insertion order.
type Document = domain.Document

// BuildData is the build metadata an envelope is built from.
type BuildData = app.BuildData

// ConfigError describes a misconfiguration caught by New.
type ConfigError = domain.ConfigError

// ServerError describes a failed dispatch.
type ServerError = domain.ServerError

// Errors returned by the client; check them with errors.Is.
var (
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrServer          = domain.ErrServer
	ErrInvalidEnvelope = domain.ErrInvalidEnvelope
	ErrClosed          = errors.New("logzship: client closed")
)

// Defaults re-exported from the domain.
const (
	DefaultEndpoint      = domain.DefaultEndpoint
	DefaultType          = domain.DefaultType
	DefaultMaxBatchBytes = domain.DefaultMaxBatchBytes
)

// DefaultConfig returns a Config with the listener defaults.
// At minimum, Token must be set before calling New.
func DefaultConfig() Config {
	return domain.DefaultRequestOptions()
}

// NewSecret wraps a token.
func NewSecret(token string) Secret {
	return domain.NewSecret(token)
}

// Client pushes envelope documents to the listener.
// A Client is safe for concurrent use; pushes are serialized.
type Client struct {
	cfg     domain.SendRequestConfig
	sender  *app.BatchingSender
	indexer *app.Indexer
	logger  log.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a client for cfg. It fails with a *ConfigError, matching
// ErrInvalidConfig, when the connection parameters are unusable; no HTTP
// client is created in that case.
func New(cfg Config, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	if o.reporter == nil {
		o.reporter = logAdapter.NewReporter(o.logger)
	}

	reqCfg, err := domain.NewSendRequestConfig(cfg)
	if err != nil {
		return nil, err
	}

	transportOpts := []httpAdapter.Option{httpAdapter.WithUserAgent(o.userAgent)}
	if o.httpClient != nil {
		transportOpts = append(transportOpts, httpAdapter.WithHTTPClient(o.httpClient))
	}
	if o.retryInitial > 0 {
		transportOpts = append(transportOpts, httpAdapter.WithRetryDelay(o.retryInitial, o.retryMax))
	}
	if o.registerer != nil {
		recorder, err := metrics.NewRecorder(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		transportOpts = append(transportOpts, httpAdapter.WithObserver(recorder))
	}

	transport, err := httpAdapter.NewTransport(reqCfg, o.reporter, transportOpts...)
	if err != nil {
		return nil, err
	}
	sender := app.NewBatchingSender(transport, reqCfg.MaxBatchBytes(), o.logger)

	o.logger.Debug("logzship client created",
		log.String("endpoint", reqCfg.Endpoint()),
		log.String("type", reqCfg.Type()),
		log.Stringer("token", reqCfg.Token()),
		log.Bool("compress", reqCfg.Compress()),
		log.Int("max_batch_bytes", reqCfg.MaxBatchBytes()))

	return &Client{
		cfg:     reqCfg,
		sender:  sender,
		indexer: app.NewIndexer(sender, o.logger),
		logger:  o.logger,
	}, nil
}

// Push sends every line of the envelope doc and flushes once. An envelope
// with an empty "message" array sends nothing.
func (c *Client) Push(ctx context.Context, doc []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.indexer.Push(ctx, doc)
}

// PushDocument marshals envelope and pushes it. A nil envelope fails with
// ErrInvalidEnvelope.
func (c *Client) PushDocument(ctx context.Context, envelope *Document) error {
	if envelope == nil {
		return fmt.Errorf("%w: nil envelope", ErrInvalidEnvelope)
	}
	b, err := envelope.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return c.Push(ctx, b)
}

// Endpoint returns the listener URL without credentials.
func (c *Client) Endpoint() string {
	return c.cfg.Endpoint()
}

// BuildPayload builds the envelope for lines; see the package function.
func (c *Client) BuildPayload(data BuildData, sourceHost string, lines []string) (*Document, error) {
	return BuildPayload(data, sourceHost, lines)
}

// Ship builds the envelope for lines and pushes it.
func (c *Client) Ship(ctx context.Context, data BuildData, sourceHost string, lines []string) error {
	envelope, err := BuildPayload(data, sourceHost, lines)
	if err != nil {
		return err
	}
	return c.PushDocument(ctx, envelope)
}

// Close releases the client's connections. Pushes after Close fail with
// ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.sender.Close()
}

// BuildPayload builds an envelope holding lines under "message", the
// constant source "jenkins", sourceHost, the build timestamp, "@version": 1
// and the build metadata flattened into top-level keys. Nested keys are
// joined with "_" and array elements suffixed with "[i]".
func BuildPayload(data BuildData, sourceHost string, lines []string) (*Document, error) {
	return app.BuildPayload(data, sourceHost, lines)
}
