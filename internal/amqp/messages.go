package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// DatasetImportedMessage announces that an import finished writing the order
// history into a store. Consumers reload from their own configured source;
// the message only says that something changed.
type DatasetImportedMessage struct {
	Source    string    `json:"source"`
	Location  string    `json:"location,omitempty"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetImportedMessage stamps a notification with the current time.
func NewDatasetImportedMessage(source, location string, rows int) *DatasetImportedMessage {
	return &DatasetImportedMessage{
		Source:    source,
		Location:  location,
		Rows:      rows,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetImportedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetImportedMessageFromJSON decodes and checks a message body.
func DatasetImportedMessageFromJSON(data []byte) (*DatasetImportedMessage, error) {
	var msg DatasetImportedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Source == "" {
		return nil, errors.New("dataset imported message: missing source")
	}
	if msg.Rows < 0 {
		return nil, errors.New("dataset imported message: negative row count")
	}
	return &msg, nil
}
