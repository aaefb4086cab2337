package core

import (
	"sync"
	"time"
)

// UnhandledStore holds, per handle name, an ordered deque of messages
// awaiting a live HandleProxy, per spec §4.3. Insertion order is preserved
// and is the order in which a later-created handle resumes sending.
type UnhandledStore struct {
	mu     sync.Mutex
	queues map[string][]*Message
}

// NewUnhandledStore constructs an empty store.
func NewUnhandledStore() *UnhandledStore {
	return &UnhandledStore{queues: make(map[string][]*Message)}
}

// Append creates handleName's queue on demand and pushes message to its
// back.
func (s *UnhandledStore) Append(handleName string, message *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[handleName] = append(s.queues[handleName], message)
}

// Take atomically removes and returns the whole queue for handleName (nil
// if none), leaving no residual entry behind.
func (s *UnhandledStore) Take(handleName string) []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, ok := s.queues[handleName]
	if !ok {
		return nil
	}
	delete(s.queues, handleName)
	return queue
}

// AppendBulk concatenates messages to the back of handleName's queue,
// creating it if absent, resetting each message's sent/ack_received flags
// first so a fresh handle retransmits from scratch (spec §4.3).
func (s *UnhandledStore) AppendBulk(handleName string, messages []*Message) {
	if len(messages) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range messages {
		m.ResetTransportState()
	}
	s.queues[handleName] = append(s.queues[handleName], messages...)
}

// Len reports the number of messages held across every queue.
func (s *UnhandledStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, q := range s.queues {
		total += len(q)
	}
	return total
}

// Remove deletes the message with the given UUID from whichever queue holds
// it, reporting whether it was found. Used by the administrative
// remove_stored_message operation (spec §6).
func (s *UnhandledStore) Remove(uuid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for handleName, queue := range s.queues {
		for i, m := range queue {
			if m.UUID == uuid {
				queue = append(queue[:i], queue[i+1:]...)
				if len(queue) == 0 {
					delete(s.queues, handleName)
				} else {
					s.queues[handleName] = queue
				}
				return true
			}
		}
	}
	return false
}

// SweepExpired removes and returns every message, across all queues, whose
// Policy has expired as of now. Queues with no expired members are left
// untouched — no allocation, no mutation — satisfying the sweeper's
// idempotence property (spec §8, property 6).
func (s *UnhandledStore) SweepExpired(now time.Time) []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*Message
	for handleName, queue := range s.queues {
		hasExpired := false
		for _, m := range queue {
			if m.Policy.IsExpired(now) {
				hasExpired = true
				break
			}
		}
		if !hasExpired {
			continue
		}

		remaining := queue[:0:0]
		for _, m := range queue {
			if m.Policy.IsExpired(now) {
				expired = append(expired, m)
			} else {
				remaining = append(remaining, m)
			}
		}
		if len(remaining) == 0 {
			delete(s.queues, handleName)
		} else {
			s.queues[handleName] = remaining
		}
	}
	return expired
}
