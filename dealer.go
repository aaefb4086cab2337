package dealer

import (
	"context"
	"sync"

	"github.com/basaltrun/dealer/internal/config"
	"github.com/basaltrun/dealer/internal/core"
	dealererrors "github.com/basaltrun/dealer/internal/errors"
	"github.com/basaltrun/dealer/internal/logging"
	"github.com/basaltrun/dealer/transport"

	"github.com/prometheus/client_golang/prometheus"
)

// Dealer is the top-level facade: it owns one Service router per named
// remote service and delegates every public operation to the addressed
// service, mirroring the original implementation's dealer_t facade over a
// map of named services.
type Dealer struct {
	cfg           *config.Config
	transportName string
	logger        logging.Logger
	metrics       *core.Metrics
	sweeper       *core.Sweeper

	mu       sync.Mutex
	services map[string]*core.Service
	closed   bool
}

// New constructs a Dealer bound to the named transport backend (one of the
// names registered in the transport package, e.g. "channel", "kafka",
// "nats", "rabbitmq", "aws", "http"). cfg is defaulted via
// config.Config.WithDefaults before use. If registerer is non-nil, Prometheus
// metrics are created and registered against it; pass nil to run without
// metrics.
func New(cfg config.Config, transportName string, logger logging.Logger, registerer prometheus.Registerer) (*Dealer, error) {
	if !transport.DefaultRegistry.Has(transportName) {
		return nil, dealererrors.ErrUnknownTransport
	}
	if logger == nil {
		return nil, dealererrors.ErrServiceRequired
	}

	resolved := cfg.WithDefaults()

	d := &Dealer{
		cfg:           &resolved,
		transportName: transportName,
		logger:        logger,
		sweeper:       core.NewSweeper(resolved.DeadlineCheckInterval),
		services:      make(map[string]*core.Service),
	}

	if registerer != nil {
		metrics := core.NewMetrics(registerer)
		if err := metrics.Register(); err != nil {
			return nil, err
		}
		d.metrics = metrics
	}

	d.sweeper.Start()
	return d, nil
}

// Submit addresses payload at serviceName/handleName, lazily creating the
// service's router on first use, and returns a Receiver for its response
// stream. See core.Service.Submit for routing semantics.
func (d *Dealer) Submit(serviceName, handleName string, payload []byte, policy core.Policy) (*core.Receiver, error) {
	svc, err := d.serviceFor(serviceName)
	if err != nil {
		return nil, err
	}
	return svc.Submit(handleName, payload, policy)
}

// ApplySnapshot hands serviceName's router the current handle->endpoint
// snapshot, typically produced by a discovery.Poller tick. Lazily creates
// the service's router on first use.
func (d *Dealer) ApplySnapshot(serviceName string, snapshot map[string][]core.Endpoint) error {
	svc, err := d.serviceFor(serviceName)
	if err != nil {
		return err
	}
	svc.ApplySnapshot(snapshot)
	return nil
}

// StoredMessagesCount reports serviceName's combined in-flight and unhandled
// message count, per spec §6.
func (d *Dealer) StoredMessagesCount(serviceName string) (int, error) {
	svc, ok := d.existingService(serviceName)
	if !ok {
		return 0, dealererrors.ErrServiceNotFound
	}
	return svc.StoredMessagesCount(), nil
}

// RemoveStoredMessage drops serviceName's stored message uuid from both the
// response registry and the unhandled store without delivering a response.
func (d *Dealer) RemoveStoredMessage(serviceName, uuid string) error {
	svc, ok := d.existingService(serviceName)
	if !ok {
		return dealererrors.ErrServiceNotFound
	}
	svc.RemoveStoredMessage(uuid)
	return nil
}

// AdminSnapshot returns serviceName's current router state for diagnostics.
func (d *Dealer) AdminSnapshot(serviceName string) (core.AdminSnapshot, error) {
	svc, ok := d.existingService(serviceName)
	if !ok {
		return core.AdminSnapshot{}, dealererrors.ErrServiceNotFound
	}
	return svc.Snapshot(), nil
}

// Close stops the deadline sweeper and closes every service's router,
// killing their handle proxies. Close is idempotent.
func (d *Dealer) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	services := make([]*core.Service, 0, len(d.services))
	for _, svc := range d.services {
		services = append(services, svc)
	}
	d.mu.Unlock()

	d.sweeper.Stop()

	var firstErr error
	for _, svc := range services {
		if err := svc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *Dealer) serviceFor(serviceName string) (*core.Service, error) {
	if serviceName == "" {
		return nil, dealererrors.ErrServiceRequired
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, dealererrors.ErrDealerClosed
	}

	if svc, ok := d.services[serviceName]; ok {
		return svc, nil
	}

	svc := core.NewService(serviceName, d.cfg.ApplicationName, d.proxyBuilder(serviceName), d.cfg.RegistryPruneInterval, d.logger)
	if d.metrics != nil {
		svc.SetMetrics(d.metrics)
	}
	d.sweeper.Watch(svc)
	d.services[serviceName] = svc
	return svc, nil
}

func (d *Dealer) existingService(serviceName string) (*core.Service, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	svc, ok := d.services[serviceName]
	return svc, ok
}

// proxyBuilder closes over the transport registry and config to produce a
// core.ProxyBuilder for serviceName, decoupling core.Service from the
// transport package.
func (d *Dealer) proxyBuilder(serviceName string) core.ProxyBuilder {
	return func(path core.Path, endpoints []core.Endpoint) (core.HandleProxy, error) {
		proxy, err := transport.Build(context.Background(), d.transportName, path, endpoints, d.cfg, d.logger)
		if err != nil {
			return nil, err
		}
		return proxy, nil
	}
}
