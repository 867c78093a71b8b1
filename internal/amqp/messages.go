package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"fiado/internal/core"
)

// RecordAppendedMessage announces a record that was just persisted.
// It carries the full record so consumers need no access to the store.
type RecordAppendedMessage struct {
	Record    core.Record `json:"record"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewRecordAppendedMessage(r core.Record) *RecordAppendedMessage {
	return &RecordAppendedMessage{Record: r, Timestamp: time.Now()}
}

func (m *RecordAppendedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordAppendedMessageFromJSON decodes and validates a message body.
func RecordAppendedMessageFromJSON(data []byte) (*RecordAppendedMessage, error) {
	var msg RecordAppendedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Record.ID == "" {
		return nil, errors.New("message has no record")
	}
	if err := msg.Record.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
