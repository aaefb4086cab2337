// Package rabbitmq provides a RabbitMQ/AMQP HandleProxy backend for the
// dealer.
package rabbitmq

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/logging"
	"github.com/basaltrun/dealer/transport"
	"github.com/basaltrun/dealer/transport/internal/wmadapter"
)

// TransportName is the name used to register this backend.
const TransportName = "rabbitmq"

// ConnectionFactory allows overriding the connection creation for testing.
var ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
	return amqp.NewConnection(cfg, logger)
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
	return amqp.NewPublisherWithConnection(cfg, logger, conn)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Subscriber, error) {
	return amqp.NewSubscriberWithConnection(cfg, logger, conn)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.RabbitMQCapabilities)
}

// Build creates a new RabbitMQ-backed HandleProxy for path.
func Build(ctx context.Context, path core.Path, endpoints []core.Endpoint, cfg transport.Config, logger logging.Logger) (transport.HandleProxy, error) {
	url := cfg.GetRabbitMQURL()
	wmLogger := logging.ToWatermillAdapter(logger)

	amqpConfig := amqp.NewDurablePubSubConfig(
		url,
		amqp.GenerateQueueNameTopicName,
	)

	conn, err := ConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   url,
		TLSConfig: nil,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, wmLogger)
	if err != nil {
		return nil, err
	}

	publisher, err := PublisherFactory(amqpConfig, wmLogger, conn)
	if err != nil {
		return nil, err
	}

	subscriber, err := SubscriberFactory(amqpConfig, wmLogger, conn)
	if err != nil {
		return nil, err
	}

	publishTopic := fmt.Sprintf("%s.%s", path.Service, path.Handle)
	subscribeTopic := fmt.Sprintf("%s.%s.responses", path.Service, path.Handle)

	return wmadapter.New(path, publisher, subscriber, publishTopic, subscribeTopic, endpoints, logger)
}
