// Package log adapts the shipper's status reporting onto structured logging.
package log

import (
	"github.com/bft-labs/logzship/internal/ports"
	pkglog "github.com/bft-labs/logzship/pkg/log"
)

// ReporterComponent is the component tag carried by reporter entries.
const ReporterComponent = "logzio-sender"

var _ ports.StatusReporter = (*Reporter)(nil)

// Reporter implements ports.StatusReporter on top of a structured logger.
type Reporter struct {
	logger ports.Logger
}

// NewReporter creates a reporter logging through logger.
// A nil logger yields a reporter that discards everything.
func NewReporter(logger ports.Logger) *Reporter {
	if logger == nil {
		logger = pkglog.NewNoopLogger()
	}
	return &Reporter{logger: logger.With(pkglog.Component(ReporterComponent))}
}

// Info logs msg at info level.
func (r *Reporter) Info(msg string) {
	r.logger.Info(msg)
}

// InfoCause logs msg at info level with its cause.
func (r *Reporter) InfoCause(msg string, cause error) {
	r.logger.Info(msg, pkglog.Err(cause))
}

// Warning logs msg at warn level.
func (r *Reporter) Warning(msg string) {
	r.logger.Warn(msg)
}

// WarningCause logs msg at warn level with its cause.
func (r *Reporter) WarningCause(msg string, cause error) {
	r.logger.Warn(msg, pkglog.Err(cause))
}

// Error logs msg at error level.
func (r *Reporter) Error(msg string) {
	r.logger.Error(msg)
}

// ErrorCause logs msg at error level with its cause.
func (r *Reporter) ErrorCause(msg string, cause error) {
	r.logger.Error(msg, pkglog.Err(cause))
}
