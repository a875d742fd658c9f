// ABOUTME: Wire format for team-chat messages exchanged between proxy instances.
// ABOUTME: Flat JSON object; nil team fields travel as JSON null.

package relay

import (
	"encoding/json"
	"fmt"
)

// Message is the team-chat relay payload. Origin carries the publishing
// instance's ID and exists purely so the publisher can discard its own echo;
// it is never an authentication credential.
type Message struct {
	Sender   string  `json:"sender"`
	TeamID   *string `json:"teamId"`
	TeamName *string `json:"teamName"`
	Content  string  `json:"message"`
	Origin   string  `json:"origin"`
}

// Encode serializes the message to its wire form.
func (m *Message) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding relay message: %w", err)
	}
	return string(data), nil
}

// DecodeMessage parses a wire payload. Unknown keys are ignored and missing
// sender/message fields decode as empty strings; undecodable JSON is an
// error and the caller drops the message.
func DecodeMessage(payload string) (*Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("decoding relay message: %w", err)
	}
	return &m, nil
}
