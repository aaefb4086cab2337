// Package transport defines the HandleProxy contract the dealer router
// consumes (spec §4.4) plus a registry of named backends and the
// capabilities each backend advertises. Concrete backends (channel, nats,
// kafka, rabbitmq, aws, http) live in their own sub-packages and register
// themselves with the default Registry.
package transport

import (
	"context"
	"time"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/logging"
)

// HandleProxy is the external-collaborator contract spec §4.4 describes: a
// thin façade over a transport that accepts enqueued messages and forwards
// response chunks via a callback.
type HandleProxy interface {
	// Enqueue accepts message for onward delivery. It returns synchronously;
	// the proxy owns delivery and will eventually invoke the response
	// callback with one or more chunks or an error.
	Enqueue(message *core.Message) error

	// SetResponseCallback registers fn to be invoked from transport
	// goroutines whenever a chunk arrives. Called at most once, before the
	// proxy's backlog (if any) is handed over.
	SetResponseCallback(fn func(core.Chunk))

	// UpdateEndpoints replaces the live endpoint pool. In-flight messages
	// may be retried against the new endpoints.
	UpdateEndpoints(endpoints []core.Endpoint)

	// Kill terminates all proxy activity. Idempotent; guarantees no further
	// callback invocation once it returns.
	Kill()

	// Drain returns every message the proxy currently holds — in flight or
	// awaiting acknowledgement — with Sent/AckReceived reset, in submission
	// order. This is the single-operation form of the original
	// make_all_messages_new + new_messages pair (see DESIGN.md).
	Drain() []*core.Message
}

// Config exposes the connection settings a HandleProxy Builder may need.
// Backends only read the fields relevant to them.
type Config interface {
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string
	GetRabbitMQURL() string
	GetNATSURL() string
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
	GetHTTPServerAddress() string
	GetHTTPPublisherURL() string
	GetHTTPRequestTimeout() time.Duration
}

// Builder constructs a HandleProxy for one handle, given its starting
// endpoint set.
type Builder func(ctx context.Context, path core.Path, endpoints []core.Endpoint, cfg Config, logger logging.Logger) (HandleProxy, error)
