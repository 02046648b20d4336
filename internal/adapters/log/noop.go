package log

import "github.com/bft-labs/logzship/internal/ports"

var _ ports.StatusReporter = NoopReporter{}

// NoopReporter implements ports.StatusReporter by discarding all events.
type NoopReporter struct{}

func (NoopReporter) Info(string)                {}
func (NoopReporter) InfoCause(string, error)    {}
func (NoopReporter) Warning(string)             {}
func (NoopReporter) WarningCause(string, error) {}
func (NoopReporter) Error(string)               {}
func (NoopReporter) ErrorCause(string, error)   {}
