package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUnhandledStore_TakePreservesFIFOOrder covers testable property 3.
func TestUnhandledStore_TakePreservesFIFOOrder(t *testing.T) {
	s := NewUnhandledStore()
	m1 := &Message{UUID: "m1"}
	m2 := &Message{UUID: "m2"}
	m3 := &Message{UUID: "m3"}

	s.Append("h", m1)
	s.Append("h", m2)
	s.Append("h", m3)

	queue := s.Take("h")
	require.Len(t, queue, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{queue[0].UUID, queue[1].UUID, queue[2].UUID})

	assert.Nil(t, s.Take("h"), "a second take on an already-drained name returns nothing")
}

func TestUnhandledStore_AppendBulkResetsTransportFlags(t *testing.T) {
	s := NewUnhandledStore()
	m := &Message{UUID: "m1", IsSent: true, AckReceived: true, Sent: time.Now()}

	s.AppendBulk("h", []*Message{m})

	queue := s.Take("h")
	require.Len(t, queue, 1)
	assert.False(t, queue[0].IsSent)
	assert.False(t, queue[0].AckReceived)
	assert.True(t, queue[0].Sent.IsZero())
}

func TestUnhandledStore_AppendBulkConcatenatesOntoExistingQueue(t *testing.T) {
	s := NewUnhandledStore()
	s.Append("h", &Message{UUID: "m1"})
	s.AppendBulk("h", []*Message{{UUID: "m2"}, {UUID: "m3"}})

	queue := s.Take("h")
	require.Len(t, queue, 3)
	assert.Equal(t, "m1", queue[0].UUID)
	assert.Equal(t, "m2", queue[1].UUID)
	assert.Equal(t, "m3", queue[2].UUID)
}

func TestUnhandledStore_RemoveDropsNamedEntryAndCollapsesEmptyQueue(t *testing.T) {
	s := NewUnhandledStore()
	s.Append("h", &Message{UUID: "m1"})

	assert.True(t, s.Remove("m1"))
	assert.False(t, s.Remove("m1"), "already removed")
	assert.Equal(t, 0, s.Len())
}

func TestUnhandledStore_SweepExpiredPartitionsByDeadline(t *testing.T) {
	s := NewUnhandledStore()
	now := time.Now()

	expired := &Message{UUID: "expired", Policy: Policy{Deadline: now.Add(-time.Second), Deadlined: true}}
	notExpired := &Message{UUID: "fresh", Policy: Policy{Deadline: now.Add(time.Hour), Deadlined: true}}
	noDeadline := &Message{UUID: "none"}

	s.Append("h", expired)
	s.Append("h", notExpired)
	s.Append("h", noDeadline)

	result := s.SweepExpired(now)
	require.Len(t, result, 1)
	assert.Equal(t, "expired", result[0].UUID)

	remaining := s.Take("h")
	require.Len(t, remaining, 2)
	assert.Equal(t, "fresh", remaining[0].UUID)
	assert.Equal(t, "none", remaining[1].UUID)
}

// TestUnhandledStore_SweepIsIdempotentWhenNothingExpired covers testable
// property 6: repeated sweeps on a queue with nothing expired must not
// mutate state.
func TestUnhandledStore_SweepIsIdempotentWhenNothingExpired(t *testing.T) {
	s := NewUnhandledStore()
	now := time.Now()
	s.Append("h", &Message{UUID: "m1", Policy: Policy{Deadline: now.Add(time.Hour), Deadlined: true}})
	s.Append("h", &Message{UUID: "m2"})

	for i := 0; i < 3; i++ {
		expired := s.SweepExpired(now)
		assert.Empty(t, expired)
	}

	queue := s.Take("h")
	require.Len(t, queue, 2)
	assert.Equal(t, "m1", queue[0].UUID)
	assert.Equal(t, "m2", queue[1].UUID)
}

func TestUnhandledStore_LenSumsAcrossHandles(t *testing.T) {
	s := NewUnhandledStore()
	s.Append("a", &Message{UUID: "m1"})
	s.Append("a", &Message{UUID: "m2"})
	s.Append("b", &Message{UUID: "m3"})

	assert.Equal(t, 3, s.Len())
}
