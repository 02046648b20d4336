// Package http implements the Logz.io listener transport.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/logzship/internal/domain"
	"github.com/bft-labs/logzship/internal/ports"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 1024

var _ ports.Transport = (*Transport)(nil)

// Transport implements ports.Transport with one HTTPS POST per dispatch.
type Transport struct {
	cfg       domain.SendRequestConfig
	client    ports.HTTPClient
	transport *http.Transport // nil when the client was injected
	reporter  ports.StatusReporter
	observer  ports.DispatchObserver
	userAgent string

	retryInitial time.Duration
	retryMax     time.Duration
}

// Option configures optional behavior of a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the default client built from the config timeouts.
func WithHTTPClient(client ports.HTTPClient) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithObserver records every dispatch outcome.
func WithObserver(observer ports.DispatchObserver) Option {
	return func(t *Transport) {
		t.observer = observer
	}
}

// WithRetryDelay sets the backoff bounds between attempts.
func WithRetryDelay(initial, max time.Duration) Option {
	return func(t *Transport) {
		t.retryInitial = initial
		t.retryMax = max
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(t *Transport) {
		t.userAgent = ua
	}
}

// NewTransport creates a transport for cfg. It fails with a
// *domain.ConfigError when cfg was not built by domain.NewSendRequestConfig.
func NewTransport(cfg domain.SendRequestConfig, reporter ports.StatusReporter, opts ...Option) (*Transport, error) {
	if !cfg.Valid() {
		return nil, &domain.ConfigError{Field: "request config", Reason: "not initialized"}
	}

	t := &Transport{
		cfg:          cfg,
		reporter:     reporter,
		userAgent:    "logzship",
		retryInitial: DefaultRetryInitial,
		retryMax:     DefaultRetryMax,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.reporter == nil {
		t.reporter = nopReporter{}
	}
	if t.observer == nil {
		t.observer = nopObserver{}
	}
	if t.client == nil {
		t.transport = newHTTPTransport(cfg)
		t.client = &http.Client{Transport: t.transport}
	}
	return t, nil
}

// newHTTPTransport applies the connect timeout to dialing and TLS handshake
// and the socket timeout to waiting for the response.
func newHTTPTransport(cfg domain.SendRequestConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout(),
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout(),
		ResponseHeaderTimeout: cfg.SocketTimeout(),
		ExpectContinueTimeout: time.Second,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// Dispatch sends messages as one request body. Connection failures and 5xx
// responses are retried up to the configured number of attempts; the last
// failure is returned as a *domain.ServerError.
func (t *Transport) Dispatch(ctx context.Context, messages []domain.FormattedMessage) error {
	if len(messages) == 0 {
		return nil
	}

	body, rawBytes, err := t.encode(messages)
	if err != nil {
		err = &domain.ServerError{Err: fmt.Errorf("encode batch: %w", err)}
		t.observer.ObserveDispatch(len(messages), rawBytes, err)
		return err
	}

	attempts := t.cfg.MaxAttempts()
	back := newBackoff(t.retryInitial, t.retryMax)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = t.post(ctx, body)
		if lastErr == nil {
			if attempt > 1 {
				t.reporter.Info(fmt.Sprintf("sent %d messages to %s on attempt %d", len(messages), t.cfg.Endpoint(), attempt))
			}
			t.observer.ObserveDispatch(len(messages), rawBytes, nil)
			return nil
		}
		if attempt == attempts || !retryable(ctx, lastErr) {
			break
		}
		t.reporter.WarningCause(fmt.Sprintf("attempt %d/%d to send %d messages failed, retrying in %s",
			attempt, attempts, len(messages), back.Current()), lastErr)
		if err := back.Wait(ctx); err != nil {
			lastErr = &domain.ServerError{Err: err}
			break
		}
	}

	t.reporter.ErrorCause(fmt.Sprintf("failed to send %d messages to %s", len(messages), t.cfg.Endpoint()), lastErr)
	t.observer.ObserveDispatch(len(messages), rawBytes, lastErr)
	return lastErr
}

// Close closes idle connections of the default client.
func (t *Transport) Close() error {
	if t.transport != nil {
		t.transport.CloseIdleConnections()
	}
	return nil
}

// encode concatenates the records and gzips them when compression is on.
// It returns the body and the uncompressed size.
func (t *Transport) encode(messages []domain.FormattedMessage) ([]byte, int, error) {
	var raw bytes.Buffer
	for _, m := range messages {
		raw.Write(m.Bytes())
	}
	if !t.cfg.Compress() {
		return raw.Bytes(), raw.Len(), nil
	}

	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, raw.Len(), fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, raw.Len(), fmt.Errorf("gzip close: %w", err)
	}
	return out.Bytes(), raw.Len(), nil
}

func (t *Transport) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.RequestURL(), bytes.NewReader(body))
	if err != nil {
		return &domain.ServerError{Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if t.cfg.Compress() {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &domain.ServerError{Err: fmt.Errorf("send request: %w", redact(err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.ServerError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var serr *domain.ServerError
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Temporary()
}

// redact strips the request URL, which carries the token, from client errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

type nopReporter struct{}

func (nopReporter) Info(string)                {}
func (nopReporter) InfoCause(string, error)    {}
func (nopReporter) Warning(string)             {}
func (nopReporter) WarningCause(string, error) {}
func (nopReporter) Error(string)               {}
func (nopReporter) ErrorCause(string, error)   {}

type nopObserver struct{}

func (nopObserver) ObserveDispatch(int, int, error) {}
