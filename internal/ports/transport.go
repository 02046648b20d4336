package ports

import (
	"context"

	"github.com/bft-labs/logzship/internal/domain"
)

// Transport performs one synchronous network transmission of a batch.
type Transport interface {
	// Dispatch sends messages, in order, as a single request.
	// A failed dispatch returns an error matching domain.ErrServer.
	Dispatch(ctx context.Context, messages []domain.FormattedMessage) error

	// Close releases connections held by the transport.
	Close() error
}

// DispatchObserver records the outcome of each dispatch.
type DispatchObserver interface {
	ObserveDispatch(messages, bytes int, err error)
}
