// Package kafka provides a Kafka HandleProxy backend for the dealer.
package kafka

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/logging"
	"github.com/basaltrun/dealer/transport"
	"github.com/basaltrun/dealer/transport/internal/wmadapter"
)

// TransportName is the name used to register this backend.
const TransportName = "kafka"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return kafka.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return kafka.NewSubscriber(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.KafkaCapabilities)
}

// Build creates a new Kafka-backed HandleProxy for path.
func Build(ctx context.Context, path core.Path, endpoints []core.Endpoint, cfg transport.Config, logger logging.Logger) (transport.HandleProxy, error) {
	brokers := cfg.GetKafkaBrokers()
	consumerGroup := cfg.GetKafkaConsumerGroup()
	wmLogger := logging.ToWatermillAdapter(logger)

	publisher, err := PublisherFactory(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		wmLogger,
	)
	if err != nil {
		return nil, err
	}

	subscriber, err := SubscriberFactory(
		kafka.SubscriberConfig{
			Brokers:       brokers,
			Unmarshaler:   kafka.DefaultMarshaler{},
			ConsumerGroup: consumerGroup,
		},
		wmLogger,
	)
	if err != nil {
		return nil, err
	}

	publishTopic := fmt.Sprintf("%s.%s", path.Service, path.Handle)
	subscribeTopic := fmt.Sprintf("%s.%s.responses", path.Service, path.Handle)

	return wmadapter.New(path, publisher, subscriber, publishTopic, subscribeTopic, endpoints, logger)
}
