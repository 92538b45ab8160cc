package session

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Message is a free-form message relayed between gamers. To is empty for
// messages addressed to the whole session. IDs are ULIDs so the log sorts by
// ID in send order.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
	Payload   []byte `json:"payload"`
	Timestamp int64  `json:"ts"`
}

type messageLog struct {
	entropy *ulid.MonotonicEntropy
	log     []Message
}

func newMessageLog() messageLog {
	return messageLog{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (m *messageLog) append(from, to string, payload []byte) Message {
	now := time.Now()
	msg := Message{
		ID:        ulid.MustNew(ulid.Timestamp(now), m.entropy).String(),
		From:      from,
		To:        to,
		Payload:   payload,
		Timestamp: now.UnixMilli(),
	}
	m.log = append(m.log, msg)
	return msg
}

func (m *messageLog) all() []Message {
	out := make([]Message, len(m.log))
	copy(out, m.log)
	return out
}

func (m *messageLog) clear() {
	m.log = nil
}
