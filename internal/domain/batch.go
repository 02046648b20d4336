package domain

// Batch is an ordered set of messages waiting to be dispatched.
// It maintains the invariant that Bytes is the sum of the sizes of Messages.
type Batch struct {
	// Messages in insertion order
	Messages []FormattedMessage

	// Bytes is the cumulative size of Messages
	Bytes int
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Add appends a message to the batch.
func (b *Batch) Add(msg FormattedMessage) {
	b.Messages = append(b.Messages, msg)
	b.Bytes += msg.Size()
}

// Len returns the number of messages in the batch.
func (b *Batch) Len() int {
	return len(b.Messages)
}

// Empty returns true if the batch has no messages.
func (b *Batch) Empty() bool {
	return len(b.Messages) == 0
}

// Take hands the buffered messages to the caller and leaves the batch empty.
// The returned slice is no longer referenced by the batch.
func (b *Batch) Take() []FormattedMessage {
	msgs := b.Messages
	b.Messages = nil
	b.Bytes = 0
	return msgs
}

// Reset drops all buffered messages.
func (b *Batch) Reset() {
	clear(b.Messages)
	b.Messages = b.Messages[:0]
	b.Bytes = 0
}
