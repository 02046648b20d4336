package app

import (
	"time"

	"github.com/bft-labs/logzship/internal/domain"
)

// Record keys set by the formatter.
const (
	MessageKey   = "message"
	TimestampKey = "@timestamp"
)

// Formatter turns one raw log line and its envelope into a formatted message.
type Formatter struct {
	now func() time.Time
}

// NewFormatter creates a formatter stamping records with the current time.
func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// Format builds a record holding line as "message", the current UTC time as
// "@timestamp", and every other envelope key as a string, in envelope order.
// The record is terminated by a newline.
func (f *Formatter) Format(envelope *domain.Document, line string) (domain.FormattedMessage, error) {
	record := domain.NewDocument()
	if err := record.Set(MessageKey, line); err != nil {
		return domain.FormattedMessage{}, err
	}
	if err := record.Set(TimestampKey, f.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return domain.FormattedMessage{}, err
	}

	for _, key := range envelope.Keys() {
		if key == MessageKey {
			continue
		}
		value, _ := envelope.StringValue(key)
		if err := record.Set(key, value); err != nil {
			return domain.FormattedMessage{}, err
		}
	}

	b, err := record.MarshalJSON()
	if err != nil {
		return domain.FormattedMessage{}, err
	}
	return domain.NewFormattedMessage(append(b, '\n')), nil
}
