package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/bft-labs/logzship/internal/domain"
)

// DefaultSettleDelay is how long a spool file must stay unchanged before it is pushed.
const DefaultSettleDelay = 500 * time.Millisecond

// Config holds CLI configuration for logzship.
type Config struct {
	Endpoint string
	Token    domain.Secret
	Type     string

	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
	Compress       bool
	MaxBatchSize   datasize.ByteSize
	MaxAttempts    int

	SourceHost  string
	SpoolDir    string
	SettleDelay time.Duration

	MetricsAddr string
	LogLevel    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Endpoint:       domain.DefaultEndpoint,
		Token:          domain.NewSecret(os.Getenv("LOGZSHIP_TOKEN")),
		Type:           domain.DefaultType,
		ConnectTimeout: domain.DefaultConnectTimeout,
		SocketTimeout:  domain.DefaultSocketTimeout,
		Compress:       true,
		MaxBatchSize:   8 * datasize.MB,
		MaxAttempts:    domain.DefaultMaxAttempts,
		SettleDelay:    DefaultSettleDelay,
		LogLevel:       "info",
	}
}

// Validate checks the configuration for errors, including the listener
// parameters a transport would reject.
func (c *Config) Validate() error {
	if c.Token.IsBlank() {
		return fmt.Errorf("token is required (--token or LOGZSHIP_TOKEN)")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.SocketTimeout <= 0 {
		return fmt.Errorf("socket timeout must be positive")
	}
	if c.MaxBatchSize == 0 {
		return fmt.Errorf("max batch size must be positive")
	}
	if c.MaxBatchSize.Bytes() > uint64(maxInt) {
		return fmt.Errorf("max batch size %s is too large", c.MaxBatchSize)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative")
	}

	if _, err := domain.NewSendRequestConfig(c.RequestOptions()); err != nil {
		return err
	}
	return nil
}

const maxInt = int(^uint(0) >> 1)

// RequestOptions converts the listener settings for domain.NewSendRequestConfig.
func (c *Config) RequestOptions() domain.RequestOptions {
	return domain.RequestOptions{
		Endpoint:       c.Endpoint,
		Token:          c.Token,
		Type:           c.Type,
		ConnectTimeout: c.ConnectTimeout,
		SocketTimeout:  c.SocketTimeout,
		Compress:       c.Compress,
		MaxBatchBytes:  int(c.MaxBatchSize.Bytes()),
		MaxAttempts:    c.MaxAttempts,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setSecret wraps a non-empty value as a secret if the flag was not changed.
func (s *configSetter) setSecret(flag, value string, dst *domain.Secret) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = domain.NewSecret(value)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setSize parses a size such as "8MB" if not empty and flag not changed.
func (s *configSetter) setSize(flag, value string, dst *datasize.ByteSize) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(value)); err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = size
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
