package domain

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Defaults for the Logz.io listener connection.
const (
	DefaultEndpoint       = "https://listener.logz.io:8071"
	DefaultType           = "jenkins_logstash_plugin"
	DefaultConnectTimeout = 10 * time.Second
	DefaultSocketTimeout  = 10 * time.Second
	DefaultMaxBatchBytes  = 8 << 20 // 8MiB
	DefaultMaxAttempts    = 3
)

var typePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// RequestOptions are the raw inputs of a SendRequestConfig.
type RequestOptions struct {
	Endpoint       string
	Token          Secret
	Type           string
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
	Compress       bool
	MaxBatchBytes  int
	MaxAttempts    int
}

// DefaultRequestOptions returns options with the listener defaults.
// Token is left blank and must be set.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		Endpoint:       DefaultEndpoint,
		Type:           DefaultType,
		ConnectTimeout: DefaultConnectTimeout,
		SocketTimeout:  DefaultSocketTimeout,
		Compress:       true,
		MaxBatchBytes:  DefaultMaxBatchBytes,
		MaxAttempts:    DefaultMaxAttempts,
	}
}

// SendRequestConfig holds the connection parameters of a transport.
// It can only be built through NewSendRequestConfig and is never mutated.
type SendRequestConfig struct {
	endpoint       *url.URL
	token          Secret
	logType        string
	connectTimeout time.Duration
	socketTimeout  time.Duration
	compress       bool
	maxBatchBytes  int
	maxAttempts    int
}

// NewSendRequestConfig validates o and returns the resulting config.
// Blank endpoint, token or type are rejected with a *ConfigError; zero
// timeouts, sizes and attempts fall back to their defaults.
func NewSendRequestConfig(o RequestOptions) (SendRequestConfig, error) {
	endpoint := strings.TrimSpace(o.Endpoint)
	if endpoint == "" {
		return SendRequestConfig{}, &ConfigError{Field: "endpoint", Reason: "must not be blank"}
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return SendRequestConfig{}, &ConfigError{Field: "endpoint", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return SendRequestConfig{}, &ConfigError{Field: "endpoint", Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return SendRequestConfig{}, &ConfigError{Field: "endpoint", Reason: "host is missing"}
	}
	if o.Token.IsBlank() {
		return SendRequestConfig{}, &ConfigError{Field: "token", Reason: "must not be blank"}
	}
	if !typePattern.MatchString(o.Type) {
		return SendRequestConfig{}, &ConfigError{Field: "type", Reason: "must be non-empty and contain only letters, digits, '_' or '-'"}
	}

	cfg := SendRequestConfig{
		endpoint:       u,
		token:          o.Token,
		logType:        o.Type,
		connectTimeout: o.ConnectTimeout,
		socketTimeout:  o.SocketTimeout,
		compress:       o.Compress,
		maxBatchBytes:  o.MaxBatchBytes,
		maxAttempts:    o.MaxAttempts,
	}
	if cfg.connectTimeout <= 0 {
		cfg.connectTimeout = DefaultConnectTimeout
	}
	if cfg.socketTimeout <= 0 {
		cfg.socketTimeout = DefaultSocketTimeout
	}
	if cfg.maxBatchBytes <= 0 {
		cfg.maxBatchBytes = DefaultMaxBatchBytes
	}
	if cfg.maxAttempts <= 0 {
		cfg.maxAttempts = DefaultMaxAttempts
	}
	return cfg, nil
}

// Valid reports whether c was produced by NewSendRequestConfig.
func (c SendRequestConfig) Valid() bool {
	return c.endpoint != nil
}

// Endpoint returns the listener URL without credentials.
func (c SendRequestConfig) Endpoint() string {
	if c.endpoint == nil {
		return ""
	}
	return c.endpoint.String()
}

// RequestURL returns the listener URL carrying the token and type query
// parameters. It contains the raw token and must not be logged.
func (c SendRequestConfig) RequestURL() string {
	if c.endpoint == nil {
		return ""
	}
	u := *c.endpoint
	if u.Path == "" {
		u.Path = "/"
	}
	q := u.Query()
	q.Set("token", c.token.Reveal())
	q.Set("type", c.logType)
	u.RawQuery = q.Encode()
	return u.String()
}

// Token returns the listener token.
func (c SendRequestConfig) Token() Secret {
	return c.token
}

// Type returns the log type tag.
func (c SendRequestConfig) Type() string {
	return c.logType
}

// ConnectTimeout bounds dialing and the TLS handshake.
func (c SendRequestConfig) ConnectTimeout() time.Duration {
	return c.connectTimeout
}

// SocketTimeout bounds waiting for the response headers.
func (c SendRequestConfig) SocketTimeout() time.Duration {
	return c.socketTimeout
}

// Compress reports whether request bodies are gzipped.
func (c SendRequestConfig) Compress() bool {
	return c.compress
}

// MaxBatchBytes is the batch size that triggers a dispatch.
func (c SendRequestConfig) MaxBatchBytes() int {
	return c.maxBatchBytes
}

// MaxAttempts is the number of tries per dispatch.
func (c SendRequestConfig) MaxAttempts() int {
	return c.maxAttempts
}
