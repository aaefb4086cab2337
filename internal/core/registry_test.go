package core

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseRegistry_RegisterRejectsDuplicateUUID(t *testing.T) {
	reg := NewResponseRegistry(time.Second)
	r := newReceiver("u1", Path{})

	require.NoError(t, reg.Register("u1", r))
	err := reg.Register("u1", r)
	assert.ErrorIs(t, err, ErrDuplicateUUID)
}

func TestResponseRegistry_LookupReturnsNoneWhenAbsent(t *testing.T) {
	reg := NewResponseRegistry(time.Second)
	assert.Nil(t, reg.Lookup("missing"))
}

// TestResponseRegistry_PruningIsBounded covers testable property 5: after a
// Receiver's consumer reference drops, a subsequent prune pass removes the
// registry entry.
func TestResponseRegistry_PruningIsBounded(t *testing.T) {
	reg := NewResponseRegistry(time.Second)

	func() {
		r := newReceiver("u1", Path{})
		require.NoError(t, reg.Register("u1", r))
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		reg.PruneUnreferenced()
		return reg.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestResponseRegistry_MaybePruneIsAmortised(t *testing.T) {
	reg := NewResponseRegistry(time.Second)

	start := time.Now()
	assert.True(t, reg.MaybePrune(start), "first call always runs, lastPrune starts at zero")
	assert.False(t, reg.MaybePrune(start.Add(100*time.Millisecond)), "within the interval, no-op")
	assert.True(t, reg.MaybePrune(start.Add(2*time.Second)), "past the interval, runs again")
}

func TestResponseRegistry_RemoveDeletesEntry(t *testing.T) {
	reg := NewResponseRegistry(time.Second)
	r := newReceiver("u1", Path{})
	require.NoError(t, reg.Register("u1", r))

	reg.Remove("u1")
	assert.Nil(t, reg.Lookup("u1"))
	assert.Equal(t, 0, reg.Len())
}
