package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bft-labs/logzship/internal/domain"
	"github.com/bft-labs/logzship/pkg/log"
)

// Indexer pushes envelope documents, one log line at a time, into a sender.
type Indexer struct {
	sender    MessageSender
	formatter *Formatter
	logger    log.Logger
}

// NewIndexer creates an indexer feeding sender.
func NewIndexer(sender MessageSender, logger log.Logger) *Indexer {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Indexer{
		sender:    sender,
		formatter: NewFormatter(),
		logger:    logger,
	}
}

// Push formats every entry of the envelope's "message" array, sends each
// one, and flushes once. An empty array causes no send and no flush.
func (ix *Indexer) Push(ctx context.Context, doc []byte) error {
	envelope, err := domain.ParseDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
	}
	lines, err := messageLines(envelope)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		ix.logger.Debug("envelope has no log lines, nothing to push")
		return nil
	}

	for i, line := range lines {
		msg, err := ix.formatter.Format(envelope, line)
		if err != nil {
			return fmt.Errorf("format line %d: %w", i, err)
		}
		if err := ix.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send line %d: %w", i, err)
		}
	}
	if err := ix.sender.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	ix.logger.Debug("pushed envelope", log.Int("lines", len(lines)))
	return nil
}

// messageLines extracts the "message" array as text lines.
func messageLines(envelope *domain.Document) ([]string, error) {
	raw, ok := envelope.Get(MessageKey)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", domain.ErrInvalidEnvelope, MessageKey)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return nil, fmt.Errorf("%w: %q is not an array", domain.ErrInvalidEnvelope, MessageKey)
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = domain.RawString(e)
	}
	return lines, nil
}
