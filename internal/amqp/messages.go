package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"subcal/internal/notify"
)

// DigestMessage carries one owner's reminder digest to the mailer worker.
type DigestMessage struct {
	Digest    notify.Digest `json:"digest"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewDigestMessage(d notify.Digest) *DigestMessage {
	return &DigestMessage{Digest: d, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *DigestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DigestMessageFromJSON decodes a message and rejects ones without an owner.
// Missing recipients and empty digests are left to the mail worker.
func DigestMessageFromJSON(data []byte) (*DigestMessage, error) {
	var msg DigestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Digest.OwnerID == "" {
		return nil, fmt.Errorf("digest message without owner")
	}
	return &msg, nil
}
