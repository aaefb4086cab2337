package core

import (
	"errors"
	"sync"
	"time"
)

// ErrReceiverTimeout is returned by Receiver.Get when timeout elapses before
// a chunk, a terminal marker, or an error becomes available.
var ErrReceiverTimeout = errors.New("dealer: receiver get timed out")

// GetResult is the outcome of a single Receiver.Get call: either a payload
// chunk, or Done set to report the clean end-of-stream marker.
type GetResult struct {
	Payload []byte
	Done    bool
}

// Receiver is the consumer-visible object spec §4.2 describes: a blocking
// endpoint for one message's response stream, shared between the Service
// router (producer side, via Deliver) and the application (consumer side,
// via Get). Its lock and condition variable are the only synchronisation
// primitive genuinely shared between independently scheduled goroutines in
// this system.
type Receiver struct {
	uuid string
	path Path

	mu            sync.Mutex
	cond          *sync.Cond
	chunks        [][]byte
	terminal      bool
	errorCaptured bool
	capturedErr   DealerError
}

func newReceiver(uuid string, path Path) *Receiver {
	r := &Receiver{uuid: uuid, path: path}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// UUID returns the message identifier this Receiver answers for.
func (r *Receiver) UUID() string { return r.uuid }

// Path returns the service/handle this Receiver's message was addressed to.
func (r *Receiver) Path() Path { return r.path }

// Deliver classifies chunk and applies it, per spec §4.2:
//   - chunk: append payload to the queue.
//   - choke: set terminal, do not append.
//   - error: set terminal, capture {code, message}.
//
// Once terminal is set, a late Deliver is silently dropped. Exactly one
// waiter (if any) is woken after classification.
func (r *Receiver) Deliver(chunk Chunk) {
	r.mu.Lock()
	if r.terminal {
		r.mu.Unlock()
		return
	}

	switch chunk.RPCCode {
	case RPCChunk:
		r.chunks = append(r.chunks, chunk.Payload)
	case RPCChoke:
		r.terminal = true
	case RPCError:
		r.terminal = true
		r.errorCaptured = true
		r.capturedErr = DealerError{Code: chunk.ErrorCode, Message: chunk.ErrorMessage}
	}
	r.mu.Unlock()

	r.cond.Signal()
}

// Get blocks until a chunk is available, the message has terminated, or
// timeout elapses, then returns the oldest buffered chunk. timeout < 0 means
// wait indefinitely; timeout >= 0 is a wall-clock bound. Once all buffered
// chunks are drained, an error-terminated Receiver surfaces its captured
// error exactly once and behaves as cleanly terminated afterwards.
func (r *Receiver) Get(timeout time.Duration) (GetResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hasDeadline := timeout >= 0
	var deadline time.Time
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for len(r.chunks) == 0 && !r.terminal {
		if !hasDeadline {
			r.cond.Wait()
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return GetResult{}, ErrReceiverTimeout
		}
		r.timedWaitLocked(remaining)
	}

	if len(r.chunks) > 0 {
		payload := r.chunks[0]
		r.chunks = r.chunks[1:]
		return GetResult{Payload: payload}, nil
	}

	// No chunks remain and the message has terminated: surface the captured
	// error exactly once, then behave as clean termination.
	if r.errorCaptured {
		r.errorCaptured = false
		err := r.capturedErr
		return GetResult{}, &err
	}
	return GetResult{Done: true}, nil
}

// timedWaitLocked waits on the condition variable for at most d, tolerating
// spurious wakeups the way the caller's loop already does. r.mu must be held
// on entry; it is held again on return.
func (r *Receiver) timedWaitLocked(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer timer.Stop()
	r.cond.Wait()
}

// discard drops all buffered chunks and marks the Receiver terminal without
// touching any other lock, per spec §4.2's destruction rule. It is used when
// the router itself must stop delivering to a Receiver it no longer needs
// (Service teardown).
func (r *Receiver) discard() {
	r.mu.Lock()
	r.chunks = nil
	r.terminal = true
	r.mu.Unlock()
	r.cond.Broadcast()
}
