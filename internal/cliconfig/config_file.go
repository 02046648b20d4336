package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and sizes to make TOML friendly.
type FileConfig struct {
	Endpoint       string `toml:"endpoint"`
	Token          string `toml:"token"`
	Type           string `toml:"type"`
	ConnectTimeout string `toml:"connect_timeout"`
	SocketTimeout  string `toml:"socket_timeout"`
	Compress       *bool  `toml:"compress"`
	MaxBatchSize   string `toml:"max_batch_size"`
	MaxAttempts    int    `toml:"max_attempts"`
	SourceHost     string `toml:"source_host"`
	SpoolDir       string `toml:"spool_dir"`
	SettleDelay    string `toml:"settle_delay"`
	MetricsAddr    string `toml:"metrics_addr"`
	LogLevel       string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.logzship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".logzship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setSecret("token", fc.Token, &cfg.Token)
	s.setString("type", fc.Type, &cfg.Type)
	s.setString("source-host", fc.SourceHost, &cfg.SourceHost)
	s.setString("spool-dir", fc.SpoolDir, &cfg.SpoolDir)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("socket-timeout", fc.SocketTimeout, &cfg.SocketTimeout); err != nil {
		return err
	}
	if err := s.setDuration("settle-delay", fc.SettleDelay, &cfg.SettleDelay); err != nil {
		return err
	}
	if err := s.setSize("max-batch-size", fc.MaxBatchSize, &cfg.MaxBatchSize); err != nil {
		return err
	}

	s.setInt("max-attempts", fc.MaxAttempts, &cfg.MaxAttempts)
	s.setBool("compress", fc.Compress, &cfg.Compress)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
