package core

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("dealer-router-tracer")

// traceSubmit wraps the message-construction step of Submit in a span
// carrying the message's path and UUID; registration and enqueueing happen
// after the span ends. Grounded on the teacher's tracerMiddleware pattern of
// wrapping one operation and attaching identifying attributes.
func traceSubmit(ctx context.Context, path Path, fn func() (*Message, error)) (*Message, error) {
	_, span := tracer.Start(ctx, "dealer.submit")
	defer span.End()

	span.SetAttributes(
		attribute.String("dealer.service", path.Service),
		attribute.String("dealer.handle", path.Handle),
	)

	message, err := fn()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("dealer.uuid", message.UUID))
	return message, nil
}

// traceDispatch wraps a DispatchChunk call in a span carrying the chunk's
// UUID and RPC code.
func traceDispatch(ctx context.Context, chunk Chunk, fn func()) {
	_, span := tracer.Start(ctx, "dealer.dispatch_chunk")
	defer span.End()

	span.SetAttributes(
		attribute.String("dealer.uuid", chunk.UUID),
		attribute.Int("dealer.rpc_code", int(chunk.RPCCode)),
	)
	fn()
}
