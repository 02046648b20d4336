package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (LOGZSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", os.Getenv("LOGZSHIP_ENDPOINT"), &cfg.Endpoint)
	s.setSecret("token", os.Getenv("LOGZSHIP_TOKEN"), &cfg.Token)
	s.setString("type", os.Getenv("LOGZSHIP_TYPE"), &cfg.Type)
	s.setString("source-host", os.Getenv("LOGZSHIP_SOURCE_HOST"), &cfg.SourceHost)
	s.setString("spool-dir", os.Getenv("LOGZSHIP_SPOOL_DIR"), &cfg.SpoolDir)
	s.setString("metrics-addr", os.Getenv("LOGZSHIP_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("LOGZSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("connect-timeout", os.Getenv("LOGZSHIP_CONNECT_TIMEOUT"), &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("socket-timeout", os.Getenv("LOGZSHIP_SOCKET_TIMEOUT"), &cfg.SocketTimeout); err != nil {
		return err
	}
	if err := s.setDuration("settle-delay", os.Getenv("LOGZSHIP_SETTLE_DELAY"), &cfg.SettleDelay); err != nil {
		return err
	}
	if err := s.setSize("max-batch-size", os.Getenv("LOGZSHIP_MAX_BATCH_SIZE"), &cfg.MaxBatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-attempts", os.Getenv("LOGZSHIP_MAX_ATTEMPTS"), &cfg.MaxAttempts); err != nil {
		return err
	}

	s.setBoolFromString("compress", os.Getenv("LOGZSHIP_COMPRESS"), &cfg.Compress)

	return nil
}
