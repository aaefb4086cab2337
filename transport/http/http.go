// Package http provides an HTTP HandleProxy backend for the dealer.
package http

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/logging"
	"github.com/basaltrun/dealer/transport"
	"github.com/basaltrun/dealer/transport/internal/wmadapter"
)

// TransportName is the name used to register this backend.
const TransportName = "http"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return http.NewPublisher(config, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(addr string, config http.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return http.NewSubscriber(addr, config, logger)
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.HTTPCapabilities)
}

// Build creates a new HTTP-backed HandleProxy for path.
func Build(ctx context.Context, path core.Path, endpoints []core.Endpoint, cfg transport.Config, logger logging.Logger) (transport.HandleProxy, error) {
	serverAddr := cfg.GetHTTPServerAddress()
	publisherURL := cfg.GetHTTPPublisherURL()
	wmLogger := logging.ToWatermillAdapter(logger)

	publisher, err := PublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*nethttp.Request, error) {
				url := publisherURL + topic
				return http.DefaultMarshalMessageFunc(url, msg)
			},
		},
		wmLogger,
	)
	if err != nil {
		return nil, err
	}

	subscriber, err := SubscriberFactory(
		serverAddr,
		http.SubscriberConfig{
			UnmarshalMessageFunc: http.DefaultUnmarshalMessageFunc,
		},
		wmLogger,
	)
	if err != nil {
		return nil, err
	}

	go func() {
		if s, ok := subscriber.(*http.Subscriber); ok {
			if err := s.StartHTTPServer(); err != nil {
				logger.Error("HTTP subscriber server failed", err, nil)
			}
		}
	}()

	publishTopic := fmt.Sprintf("%s.%s", path.Service, path.Handle)
	subscribeTopic := fmt.Sprintf("%s.%s.responses", path.Service, path.Handle)

	return wmadapter.New(path, publisher, subscriber, publishTopic, subscribeTopic, endpoints, logger)
}
