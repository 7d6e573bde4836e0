package messages

import (
	"encoding/json"
	"fmt"
)

// SerializeMessage encodes a Message as a single JSON text frame.
func SerializeMessage(m *Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}
	return b, nil
}

// DeserializeMessage decodes a single JSON text frame into a Message.
func DeserializeMessage(data []byte) (*Message, error) {
	m := &Message{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("message is missing a type")
	}
	return m, nil
}

// NewServerMessage builds a Message of the given type around a marshaled payload.
func NewServerMessage(msgType string, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", msgType, err)
	}
	return &Message{
		Type:    msgType,
		Payload: b,
	}, nil
}
