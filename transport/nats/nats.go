// Package nats provides a NATS Core HandleProxy backend for the dealer.
package nats

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/logging"
	"github.com/basaltrun/dealer/transport"
	"github.com/basaltrun/dealer/transport/internal/wmadapter"
)

// TransportName is the name used to register this backend.
const TransportName = "nats"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return nats.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg nats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return nats.NewSubscriber(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.NATSCapabilities)
}

// Build creates a new NATS-backed HandleProxy for path.
func Build(ctx context.Context, path core.Path, endpoints []core.Endpoint, cfg transport.Config, logger logging.Logger) (transport.HandleProxy, error) {
	url := cfg.GetNATSURL()
	marshaler := &nats.NATSMarshaler{}
	wmLogger := logging.ToWatermillAdapter(logger)

	publisher, err := PublisherFactory(
		nats.PublisherConfig{
			URL:       url,
			Marshaler: marshaler,
		},
		wmLogger,
	)
	if err != nil {
		return nil, err
	}

	subscriber, err := SubscriberFactory(
		nats.SubscriberConfig{
			URL:         url,
			Unmarshaler: marshaler,
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
