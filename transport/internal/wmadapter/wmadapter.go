// Package wmadapter adapts a watermill message.Publisher/message.Subscriber
// pair to the transport.HandleProxy contract. Every broker-backed backend in
// this module (channel, nats, kafka, rabbitmq, aws, http) builds its
// Publisher and Subscriber the way the teacher's backends already did, then
// hands both to New here instead of returning them as a bare
// Publisher/Subscriber pair — this is the one place the request/response
// envelope and the in-flight cache are implemented, so the six backends
// don't each reinvent it.
package wmadapter

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/ids"
	"github.com/basaltrun/dealer/internal/logging"
)

// envelope is the wire representation of an outbound Message. Framing is
// unspecified by the routing core (an explicit non-goal); JSON keeps every
// backend's marshaling identical regardless of broker.
type envelope struct {
	UUID    string `json:"uuid"`
	Service string `json:"service"`
	Handle  string `json:"handle"`
	Payload []byte `json:"payload"`
}

// Proxy is a transport.HandleProxy built over a watermill Publisher/
// Subscriber pair.
type Proxy struct {
	path           core.Path
	publisher      message.Publisher
	subscriber     message.Subscriber
	publishTopic   string
	subscribeTopic string
	logger         logging.Logger

	cancel context.CancelFunc

	mu        sync.Mutex
	cache     map[string]*core.Message
	order     []string
	callback  func(core.Chunk)
	endpoints []core.Endpoint
	killed    bool
}

// New subscribes to subscribeTopic and returns a Proxy that publishes
// enqueued messages to publishTopic. The subscription is established before
// New returns. A chunk that arrives before SetResponseCallback has been
// called is acknowledged and dropped.
func New(path core.Path, publisher message.Publisher, subscriber message.Subscriber, publishTopic, subscribeTopic string, endpoints []core.Endpoint, logger logging.Logger) (*Proxy, error) {
	ctx, cancel := context.WithCancel(context.Background())

	messages, err := subscriber.Subscribe(ctx, subscribeTopic)
	if err != nil {
		cancel()
		return nil, err
	}

	p := &Proxy{
		path:           path,
		publisher:      publisher,
		subscriber:     subscriber,
		publishTopic:   publishTopic,
		subscribeTopic: subscribeTopic,
		logger:         logger,
		cancel:         cancel,
		cache:          make(map[string]*core.Message),
		endpoints:      endpoints,
	}

	go p.consume(messages)
	return p, nil
}

func (p *Proxy) consume(messages <-chan *message.Message) {
	for msg := range messages {
		var chunk core.Chunk
		if err := json.Unmarshal(msg.Payload, &chunk); err != nil {
			p.logger.Error("malformed response envelope", err, logging.Fields{
				"service": p.path.Service, "handle": p.path.Handle,
			})
			msg.Ack()
			continue
		}
		p.deliver(chunk)
		msg.Ack()
	}
}

func (p *Proxy) deliver(chunk core.Chunk) {
	p.mu.Lock()
	if chunk.RPCCode == core.RPCChoke || chunk.RPCCode == core.RPCError {
		delete(p.cache, chunk.UUID)
	}
	callback := p.callback
	p.mu.Unlock()

	if callback != nil {
		callback(chunk)
	}
}

// Enqueue implements transport.HandleProxy.
func (p *Proxy) Enqueue(m *core.Message) error {
	p.mu.Lock()
	p.cache[m.UUID] = m
	p.order = append(p.order, m.UUID)
	p.mu.Unlock()

	body, err := json.Marshal(envelope{
		UUID:    m.UUID,
		Service: m.Path.Service,
		Handle:  m.Path.Handle,
		Payload: m.Payload,
	})
	if err != nil {
		return err
	}

	wmMsg := message.NewMessage(ids.NewULID(), body)
	if err := p.publisher.Publish(p.publishTopic, wmMsg); err != nil {
		return err
	}

	m.IsSent = true
	return nil
}

// SetResponseCallback implements transport.HandleProxy.
func (p *Proxy) SetResponseCallback(fn func(core.Chunk)) {
	p.mu.Lock()
	p.callback = fn
	p.mu.Unlock()
}

// UpdateEndpoints implements transport.HandleProxy. Broker-backed proxies
// are already bound to a connection established at construction time; this
// records the latest endpoint set for observability without reconnecting.
func (p *Proxy) UpdateEndpoints(endpoints []core.Endpoint) {
	p.mu.Lock()
	p.endpoints = endpoints
	p.mu.Unlock()
}

// Kill implements transport.HandleProxy. Idempotent.
func (p *Proxy) Kill() {
	p.mu.Lock()
	if p.killed {
		p.mu.Unlock()
		return
	}
	p.killed = true
	p.mu.Unlock()

	p.cancel()
	if err := p.subscriber.Close(); err != nil {
		p.logger.Error("subscriber close failed", err, logging.Fields{"service": p.path.Service, "handle": p.path.Handle})
	}
	if err := p.publisher.Close(); err != nil {
		p.logger.Error("publisher close failed", err, logging.Fields{"service": p.path.Service, "handle": p.path.Handle})
	}
}

// Drain implements transport.HandleProxy.
func (p *Proxy) Drain() []*core.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	drained := make([]*core.Message, 0, len(p.order))
	for _, uuid := range p.order {
		if m, ok := p.cache[uuid]; ok {
			m.ResetTransportState()
			drained = append(drained, m)
		}
	}
	p.cache = make(map[string]*core.Message)
	p.order = nil
	return drained
}
