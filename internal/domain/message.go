package domain

// FormattedMessage is one fully serialized log record, including its
// trailing record separator. It is immutable once created.
type FormattedMessage struct {
	data []byte
}

// NewFormattedMessage copies data into a new message.
func NewFormattedMessage(data []byte) FormattedMessage {
	b := make([]byte, len(data))
	copy(b, data)
	return FormattedMessage{data: b}
}

// Bytes returns the serialized record. Callers must not modify it.
func (m FormattedMessage) Bytes() []byte {
	return m.data
}

// Size is the number of bytes the message accounts for in a batch.
func (m FormattedMessage) Size() int {
	return len(m.data)
}

func (m FormattedMessage) String() string {
	return string(m.data)
}
