package amqp

import (
	"encoding/json"
	"time"
)

// Change kinds carried on the wire.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeMessage announces that a transaction changed. It is deliberately
// lightweight: only the kind and id travel; each consumer re-queries its
// store and pushes a fresh full snapshot, so no state is reconstructed from
// the message itself.
type ChangeMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change message for the given kind and id.
func NewChangeMessage(kind, id string) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
