package transport

// Capabilities describes the features a HandleProxy backend supports. They
// are descriptive only: the router does not read them, and they never change
// routing semantics.
type Capabilities struct {
	// SupportsOrdering indicates chunks for a given UUID arrive in the
	// order the backend received them.
	SupportsOrdering bool

	// SupportsAck indicates the backend surfaces explicit delivery
	// acknowledgement, letting Message.AckReceived reflect broker state
	// rather than "enqueue accepted".
	SupportsAck bool

	// SupportsNack indicates the backend can signal delivery failure before
	// a terminal chunk, letting the proxy retry against a different
	// endpoint.
	SupportsNack bool

	// SupportsTracing indicates the backend propagates trace context
	// natively so dispatch spans link across the wire.
	SupportsTracing bool

	// MaxMessageSize is the maximum payload size in bytes (0 = unknown).
	MaxMessageSize int64

	// Name is the backend's registered name.
	Name string
}

// SupportsReliableDelivery reports whether the backend supports
// at-least-once delivery semantics (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Predefined capability sets for the backends this module ships.
var (
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	KafkaCapabilities = Capabilities{
		Name:             "kafka",
		SupportsOrdering: true,
		SupportsTracing:  true,
		SupportsAck:      true,
		MaxMessageSize:   1048576,
	}

	RabbitMQCapabilities = Capabilities{
		Name:             "rabbitmq",
		SupportsOrdering: true,
		SupportsTracing:  true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	NATSCapabilities = Capabilities{
		Name:           "nats",
		SupportsTracing: true,
		MaxMessageSize: 1048576,
	}

	AWSCapabilities = Capabilities{
		Name:             "aws",
		SupportsOrdering: true,
		SupportsTracing:  true,
		SupportsAck:      true,
		SupportsNack:     true,
		MaxMessageSize:   262144,
	}

	HTTPCapabilities = Capabilities{
		Name:            "http",
		SupportsTracing: true,
	}
)

// GetCapabilities returns the capabilities registered under name in the
// default registry, or a zero Capabilities carrying just the name.
func GetCapabilities(name string) Capabilities {
	return DefaultRegistry.GetCapabilities(name)
}
