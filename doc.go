// Package dealer is the client-side runtime of an asynchronous RPC dealer:
// applications submit opaque payloads addressed to named remote services and
// receive streamed response chunks back through a blocking Receiver.
//
// A Dealer owns one Service router per remote service name. Each Service
// maintains a handle-keyed routing table whose membership changes as the
// discovery layer reports new, updated, or removed handles; an unhandled
// holding area for messages whose target handle does not yet exist or was
// just torn down; and a response registry mapping request UUIDs to blocking
// Receivers. A single periodic deadline sweeper, owned by the Dealer, fails
// unhandled messages of every Service that expire before delivery.
//
// A minimal setup fills a Config, calls New to obtain a Dealer for a chosen
// transport, calls ApplySnapshot once discovery produces an initial
// handle->endpoint map, and then calls Submit per outgoing request.
//
// # Transports
//
// Six backends ship with the module, each in its own sub-package under
// transport/. A backend registers itself with the transport registry when
// its sub-package is imported (a blank import is enough); New rejects a
// transport name that has not been registered this way:
//   - channel: in-memory Go channels, for testing and local development
//   - kafka: high-throughput streaming with consumer groups
//   - rabbitmq: AMQP-based durable queues
//   - aws: AWS SNS/SQS with LocalStack support
//   - nats: low-latency core NATS messaging
//   - http: request/response messaging over plain HTTP
//
// # Discovery
//
// The discovery package feeds handle->endpoint-set snapshots into a Service
// via ApplySnapshot. A Static fetcher serves a fixed endpoint set, an
// HTTPFetcher polls a plain-text resource in the original hosts-data line
// format, and a Poller drives either on a fixed interval.
//
// # Observability
//
// Metrics are exposed through Prometheus CounterVec/GaugeVec collectors
// under the dealer_router_* namespace, and Submit/DispatchChunk are wrapped
// in OpenTelemetry spans for distributed tracing.
package dealer
