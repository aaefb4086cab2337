package channel

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/require"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/logging"
)

func newTestSlogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild_RoundTripsEnqueueAndResponse(t *testing.T) {
	originalFactory := Factory
	defer func() { Factory = originalFactory }()

	var pubSub *gochannel.GoChannel
	Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
		pubSub = gochannel.NewGoChannel(cfg, logger)
		return pubSub, pubSub
	}

	logger := logging.NewSlogLogger(newTestSlogger())
	path := core.Path{Service: "s", Handle: "h"}

	proxy, err := Build(context.Background(), path, nil, nil, logger)
	require.NoError(t, err)
	defer proxy.Kill()

	requests, err := pubSub.Subscribe(context.Background(), "s.h")
	require.NoError(t, err)

	received := make(chan core.Chunk, 1)
	proxy.SetResponseCallback(func(c core.Chunk) { received <- c })

	msg := core.NewMessage(path, []byte("hello"), core.Policy{})
	require.NoError(t, proxy.Enqueue(msg))

	select {
	case wmMsg := <-requests:
		var env struct {
			UUID    string `json:"uuid"`
			Service string `json:"service"`
			Handle  string `json:"handle"`
			Payload []byte `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(wmMsg.Payload, &env))
		require.Equal(t, msg.UUID, env.UUID)
		require.Equal(t, "hello", string(env.Payload))
		wmMsg.Ack()
	case <-time.After(time.Second):
		t.Fatal("request was never published")
	}

	chunkBody, err := json.Marshal(core.Chunk{UUID: msg.UUID, RPCCode: core.RPCChunk, Payload: []byte("world")})
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish("s.h.responses", message.NewMessage(watermill.NewUUID(), chunkBody)))

	select {
	case chunk := <-received:
		require.Equal(t, msg.UUID, chunk.UUID)
		require.Equal(t, []byte("world"), chunk.Payload)
	case <-time.After(time.Second):
		t.Fatal("response chunk never reached the callback")
	}
}

func TestBuild_DrainReturnsInFlightMessages(t *testing.T) {
	originalFactory := Factory
	defer func() { Factory = originalFactory }()

	Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
		pubSub := gochannel.NewGoChannel(cfg, logger)
		return pubSub, pubSub
	}

	logger := logging.NewSlogLogger(newTestSlogger())
	path := core.Path{Service: "s", Handle: "h"}

	proxy, err := Build(context.Background(), path, nil, nil, logger)
	require.NoError(t, err)

	msg := core.NewMessage(path, []byte("hello"), core.Policy{})
	require.NoError(t, proxy.Enqueue(msg))

	drained := proxy.Drain()
	require.Len(t, drained, 1)
	require.Equal(t, msg.UUID, drained[0].UUID)

	proxy.Kill()
}
