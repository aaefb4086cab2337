package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiver_DeliverOrdersChunksBeforeTermination(t *testing.T) {
	r := newReceiver("u1", Path{Service: "s", Handle: "h"})

	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCChunk, Payload: []byte("a")})
	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCChunk, Payload: []byte("b")})
	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCChoke})

	first, err := r.Get(-1)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), first.Payload)

	second, err := r.Get(-1)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), second.Payload)

	end, err := r.Get(-1)
	require.NoError(t, err)
	assert.True(t, end.Done)
}

// TestReceiver_AtMostOneTerminalTransition covers testable property 1: once
// terminal, further Deliver calls must not mutate state.
func TestReceiver_AtMostOneTerminalTransition(t *testing.T) {
	r := newReceiver("u1", Path{Service: "s", Handle: "h"})

	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCChoke})
	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCError, ErrorCode: ErrorCodeTransport, ErrorMessage: "too late"})
	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCChunk, Payload: []byte("late")})

	result, err := r.Get(-1)
	require.NoError(t, err)
	assert.True(t, result.Done, "choke should win since it arrived first and the later calls were dropped")
}

// TestReceiver_ErrorSurfacesExactlyOnce covers testable property 2.
func TestReceiver_ErrorSurfacesExactlyOnce(t *testing.T) {
	r := newReceiver("u1", Path{Service: "s", Handle: "h"})

	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCChunk, Payload: []byte("r1")})
	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCError, ErrorCode: ErrorCode(7), ErrorMessage: "boom"})

	chunk, err := r.Get(-1)
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), chunk.Payload)

	_, err = r.Get(-1)
	var dealerErr *DealerError
	require.True(t, errors.As(err, &dealerErr))
	assert.Equal(t, ErrorCode(7), dealerErr.Code)
	assert.Equal(t, "boom", dealerErr.Message)

	result, err := r.Get(-1)
	require.NoError(t, err)
	assert.True(t, result.Done, "error must surface exactly once, then behave as clean termination")
}

func TestReceiver_GetTimesOutWhenNothingArrives(t *testing.T) {
	r := newReceiver("u1", Path{Service: "s", Handle: "h"})

	_, err := r.Get(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrReceiverTimeout)
}

func TestReceiver_GetUnblocksWhenDeliverRacesTheWaiter(t *testing.T) {
	r := newReceiver("u1", Path{Service: "s", Handle: "h"})

	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		r.Deliver(Chunk{UUID: "u1", RPCCode: RPCChunk, Payload: []byte("late")})
		close(done)
	}()

	result, err := r.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("late"), result.Payload)
	<-done
}

func TestReceiver_DiscardTerminatesAndDropsBuffered(t *testing.T) {
	r := newReceiver("u1", Path{Service: "s", Handle: "h"})
	r.Deliver(Chunk{UUID: "u1", RPCCode: RPCChunk, Payload: []byte("r1")})

	r.discard()

	result, err := r.Get(-1)
	require.NoError(t, err)
	assert.True(t, result.Done)
}
