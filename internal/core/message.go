package core

import (
	"time"

	"github.com/basaltrun/dealer/internal/ids"
)

// Path addresses a message at a specific service and handle, per spec §3.
type Path struct {
	Service string
	Handle  string
}

// Policy carries the lifetime rules attached to a message. Deadline is the
// wall-clock expiry time; Deadlined mirrors the original "deadline policy"
// flag — a message can carry a Deadline purely informationally (Deadlined
// false) without ever being expired by the sweeper, exactly as spec §4.6
// requires ("deadline has passed and the deadline flag is set").
type Policy struct {
	Deadline  time.Time
	Deadlined bool
}

// IsExpired reports whether the policy makes the message eligible for expiry
// as of now: Deadlined is set, a Deadline is present, and now is past it.
func (p Policy) IsExpired(now time.Time) bool {
	return p.Deadlined && !p.Deadline.IsZero() && now.After(p.Deadline)
}

// Message is the immutable header plus opaque payload described in spec §3.
// Sent and AckReceived are mutable flags owned by the transport (handle
// proxy); the router never inspects them except to reset them on
// re-queueing into the unhandled store.
type Message struct {
	UUID      string
	Path      Path
	Payload   []byte
	Policy    Policy
	Enqueued  time.Time
	Sent      time.Time
	IsSent    bool
	AckReceived bool
}

// NewMessage builds a Message with a fresh UUID and the current enqueue
// timestamp. The caller supplies the destination path, payload, and policy.
func NewMessage(path Path, payload []byte, policy Policy) *Message {
	return &Message{
		UUID:     ids.NewMessageUUID(),
		Path:     path,
		Payload:  payload,
		Policy:   policy,
		Enqueued: time.Now(),
	}
}

// ResetTransportState clears the flags owned by the transport so a message
// retransmits from scratch after being handed to a new handle proxy, per
// spec §4.3's append_bulk contract.
func (m *Message) ResetTransportState() {
	m.IsSent = false
	m.AckReceived = false
	m.Sent = time.Time{}
}
