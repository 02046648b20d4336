package app

import (
	"context"
	"errors"

	"github.com/bft-labs/logzship/internal/domain"
	"github.com/bft-labs/logzship/internal/ports"
	"github.com/bft-labs/logzship/pkg/log"
)

// MessageSender accepts formatted messages and flushes them at the end of a
// logical unit of work.
type MessageSender interface {
	Send(ctx context.Context, msg domain.FormattedMessage) error
	Flush(ctx context.Context) error
}

var _ MessageSender = (*BatchingSender)(nil)

// BatchingSender buffers messages and dispatches them through a transport
// once their cumulative size exceeds maxBatchBytes, or on Flush.
//
// A BatchingSender has a single owner and is not safe for concurrent use.
type BatchingSender struct {
	transport     ports.Transport
	batch         *domain.Batch
	maxBatchBytes int
	logger        ports.Logger
}

// NewBatchingSender creates a sender over transport. A non-positive
// maxBatchBytes selects domain.DefaultMaxBatchBytes.
func NewBatchingSender(transport ports.Transport, maxBatchBytes int, logger ports.Logger) *BatchingSender {
	if maxBatchBytes <= 0 {
		maxBatchBytes = domain.DefaultMaxBatchBytes
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &BatchingSender{
		transport:     transport,
		batch:         domain.NewBatch(),
		maxBatchBytes: maxBatchBytes,
		logger:        logger,
	}
}

// Send appends msg to the batch. When the batch grows past the threshold it
// is dispatched before Send returns, so Send may block on network I/O.
func (s *BatchingSender) Send(ctx context.Context, msg domain.FormattedMessage) error {
	s.batch.Add(msg)
	if s.batch.Bytes > s.maxBatchBytes {
		s.logger.Debug("batch size threshold crossed",
			log.Int("messages", s.batch.Len()),
			log.Int("bytes", s.batch.Bytes),
			log.Int("threshold", s.maxBatchBytes))
		return s.dispatchAndReset(ctx)
	}
	return nil
}

// Flush dispatches whatever is buffered. It is a no-op on an empty batch.
func (s *BatchingSender) Flush(ctx context.Context) error {
	if s.batch.Empty() {
		return nil
	}
	return s.dispatchAndReset(ctx)
}

// Pending returns the number of buffered messages.
func (s *BatchingSender) Pending() int {
	return s.batch.Len()
}

// PendingBytes returns the cumulative size of buffered messages.
func (s *BatchingSender) PendingBytes() int {
	return s.batch.Bytes
}

// Close releases the transport. Buffered messages are dropped, not flushed.
func (s *BatchingSender) Close() error {
	if n := s.batch.Len(); n > 0 {
		s.logger.Warn("closing sender with unflushed messages", log.Int("messages", n))
	}
	s.batch.Reset()
	return s.transport.Close()
}

// dispatchAndReset empties the batch before dispatching; a failed batch is
// not re-queued.
func (s *BatchingSender) dispatchAndReset(ctx context.Context) error {
	bytes := s.batch.Bytes
	messages := s.batch.Take()

	if err := s.transport.Dispatch(ctx, messages); err != nil {
		s.logger.Error("dispatch failed, batch dropped",
			log.Int("messages", len(messages)),
			log.Int("bytes", bytes),
			log.Err(err))
		var serr *domain.ServerError
		if errors.As(err, &serr) {
			return err
		}
		return &domain.ServerError{Err: err}
	}

	s.logger.Debug("batch dispatched", log.Int("messages", len(messages)), log.Int("bytes", bytes))
	return nil
}
