package core

import (
	"context"
	"sync"
	"time"

	dealererrors "github.com/basaltrun/dealer/internal/errors"
	"github.com/basaltrun/dealer/internal/logging"
)

// ProxyBuilder constructs the HandleProxy for one handle, given its starting
// endpoint set. Service never talks to the transport registry directly —
// the caller supplies this function, keeping core free of an import cycle
// with transport (see DESIGN.md).
type ProxyBuilder func(path Path, endpoints []Endpoint) (HandleProxy, error)

// Service is the router spec §4.5 describes: it owns the handle map, the
// unhandled store and the response registry for one named remote service,
// and exposes submission, discovery ingestion, and chunk dispatch.
type Service struct {
	name            string
	applicationName string
	builder         ProxyBuilder
	logger          logging.Logger

	registry  *ResponseRegistry
	unhandled *UnhandledStore
	metrics   *Metrics

	// handleMu is lock (1) of spec §5: it protects handles and is always
	// acquired before the unhandled-store lock (2), never after.
	handleMu sync.Mutex
	handles  map[string]HandleProxy

	// snapshotMu serialises ApplySnapshot calls so no second snapshot is
	// processed until the first completes, per spec §5's ordering guarantee.
	// It is independent of handleMu: submissions and dispatch may interleave
	// freely with an in-progress snapshot application.
	snapshotMu sync.Mutex

	closedMu sync.Mutex
	closed   bool
}

// NewService constructs a Service for serviceName. builder is invoked once
// per handle creation to obtain that handle's HandleProxy.
func NewService(serviceName, applicationName string, builder ProxyBuilder, registryPruneInterval time.Duration, logger logging.Logger) *Service {
	return &Service{
		name:            serviceName,
		applicationName: applicationName,
		builder:         builder,
		logger:          logger,
		registry:        NewResponseRegistry(registryPruneInterval),
		unhandled:       NewUnhandledStore(),
		handles:         make(map[string]HandleProxy),
	}
}

// Name returns the service name this router was constructed for.
func (s *Service) Name() string { return s.name }

// SetMetrics attaches a Metrics collector. Calling it is optional; a nil
// Service.metrics silently no-ops every observation.
func (s *Service) SetMetrics(metrics *Metrics) { s.metrics = metrics }

// Submit implements send_message (spec §4.5, §6): it registers a fresh
// Receiver for a new UUID, then either enqueues directly onto a live handle
// or appends to the unhandled store for handleName.
func (s *Service) Submit(handleName string, payload []byte, policy Policy) (*Receiver, error) {
	if s.isClosed() {
		return nil, dealererrors.ErrServiceClosed
	}
	if handleName == "" {
		return nil, dealererrors.ErrHandleRequired
	}

	path := Path{Service: s.name, Handle: handleName}
	message, err := traceSubmit(context.Background(), path, func() (*Message, error) {
		return NewMessage(path, payload, policy), nil
	})
	if err != nil {
		return nil, err
	}
	receiver := newReceiver(message.UUID, path)

	// Registration (lock 3) happens before the handle-map lock (1) is
	// touched, per spec §5: registration is independent of handle choice.
	if err := s.registry.Register(message.UUID, receiver); err != nil {
		return nil, err
	}
	s.metrics.observeSubmission(s.name, handleName)

	s.handleMu.Lock()
	proxy, live := s.handles[handleName]
	if live {
		err := proxy.Enqueue(message)
		s.handleMu.Unlock()
		if err != nil {
			s.logger.Error("enqueue failed", err, logging.Fields{
				"service": s.name, "handle": handleName, "uuid": message.UUID,
			})
		}
		return receiver, nil
	}
	s.handleMu.Unlock()

	s.unhandled.Append(handleName, message)
	s.metrics.observeUnhandledDepth(s.name, handleName, s.unhandled.Len())
	return receiver, nil
}

// ApplySnapshot implements discovery ingestion (spec §4.5): it computes the
// outstanding/new/existing sets against the current handle map and destroys,
// creates, or updates handles accordingly. Only one snapshot is processed at
// a time.
func (s *Service) ApplySnapshot(snapshot map[string][]Endpoint) {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()

	s.handleMu.Lock()
	currentNames := make([]string, 0, len(s.handles))
	for name := range s.handles {
		currentNames = append(currentNames, name)
	}
	s.handleMu.Unlock()

	currentSet := make(map[string]struct{}, len(currentNames))
	for _, name := range currentNames {
		currentSet[name] = struct{}{}
	}

	for name, endpoints := range snapshot {
		if _, exists := currentSet[name]; exists {
			s.updateHandle(name, endpoints)
			continue
		}
		if err := s.createHandle(name, endpoints); err != nil {
			s.logger.Error("create handle failed", err, logging.Fields{
				"service": s.name, "handle": name,
			})
		}
	}

	for _, name := range currentNames {
		if _, present := snapshot[name]; !present {
			s.destroyHandle(name)
		}
	}
}

// createHandle instantiates a proxy, registers its response callback, then
// takes the matching unhandled backlog and replays it onto the new proxy in
// submission order (spec §4.5: the proxy must be ready to receive chunks
// before the backlog is handed over).
func (s *Service) createHandle(name string, endpoints []Endpoint) error {
	path := Path{Service: s.name, Handle: name}
	proxy, err := s.builder(path, endpoints)
	if err != nil {
		return err
	}
	proxy.SetResponseCallback(s.DispatchChunk)

	s.handleMu.Lock()
	s.handles[name] = proxy
	s.handleMu.Unlock()

	backlog := s.unhandled.Take(name)
	for _, message := range backlog {
		if err := proxy.Enqueue(message); err != nil {
			s.logger.Error("backlog enqueue failed", err, logging.Fields{
				"service": s.name, "handle": name, "uuid": message.UUID,
			})
		}
	}
	return nil
}

// updateHandle forwards the snapshot's endpoint set unconditionally; the
// proxy decides whether anything changed.
func (s *Service) updateHandle(name string, endpoints []Endpoint) {
	s.handleMu.Lock()
	proxy := s.handles[name]
	s.handleMu.Unlock()
	if proxy == nil {
		return
	}
	proxy.UpdateEndpoints(endpoints)
}

// destroyHandle kills the proxy, drains its in-flight messages back to the
// unhandled store, and removes it from the handle map — in that order,
// holding the handle-map lock throughout, per spec §5.
func (s *Service) destroyHandle(name string) {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	proxy, ok := s.handles[name]
	if !ok {
		return
	}
	proxy.Kill()
	drained := proxy.Drain()
	s.unhandled.AppendBulk(name, drained)
	delete(s.handles, name)
}

// DispatchChunk implements dispatch_chunk (spec §4.5): it amortises registry
// pruning, looks up the chunk's UUID, and delivers to the Receiver if one is
// still referenced, always releasing the registry lock before calling
// deliver. A choke or error chunk ends the message, so its registry entry is
// removed after delivery.
func (s *Service) DispatchChunk(chunk Chunk) {
	traceDispatch(context.Background(), chunk, func() {
		if s.registry.MaybePrune(time.Now()) {
			s.metrics.observeRegistryPrune()
		}

		receiver := s.registry.Lookup(chunk.UUID)
		if receiver == nil {
			s.metrics.observeDropped(s.name)
			return
		}
		receiver.Deliver(chunk)
		if chunk.RPCCode != RPCChunk {
			s.registry.Remove(chunk.UUID)
		}
		s.metrics.observeDispatched(s.name)
	})
}

// StoredMessagesCount implements stored_messages_count (spec §6): every
// submitted message is registered in the response registry regardless of
// whether it is in-flight or unhandled, and stays there until a choke or
// error chunk ends it, so the registry's size is the combined population.
// Entries whose consumer dropped its Receiver are counted until the next
// prune pass removes them.
func (s *Service) StoredMessagesCount() int {
	return s.registry.Len()
}

// RemoveStoredMessage implements remove_stored_message (spec §6): it
// deletes uuid's registry entry and, if present, its unhandled-store entry.
// It does not reach into a live proxy's in-flight cache — the proxy contract
// exposes no such operation.
func (s *Service) RemoveStoredMessage(uuid string) {
	s.registry.Remove(uuid)
	s.unhandled.Remove(uuid)
}

// Close tears the Service down: every handle is destroyed in turn, draining
// its messages to the unhandled store. Every Receiver still in the registry
// then has its buffered chunks dropped and is marked terminal, so its next
// Get returns the end marker.
func (s *Service) Close() error {
	s.closedMu.Lock()
	if s.closed {
		s.closedMu.Unlock()
		return dealererrors.ErrServiceClosed
	}
	s.closed = true
	s.closedMu.Unlock()

	s.handleMu.Lock()
	names := make([]string, 0, len(s.handles))
	for name := range s.handles {
		names = append(names, name)
	}
	s.handleMu.Unlock()

	for _, name := range names {
		s.destroyHandle(name)
	}
	s.registry.DiscardAll()
	return nil
}

func (s *Service) isClosed() bool {
	s.closedMu.Lock()
	defer s.closedMu.Unlock()
	return s.closed
}

// sweepUnhandled is invoked by the deadline sweeper (spec §4.6): it removes
// every expired message across all handle-name queues and routes each
// through DispatchChunk as a synthesised deadline error, so the consumer
// observes it exactly as a transport-originated error.
func (s *Service) sweepUnhandled(now time.Time) {
	expired := s.unhandled.SweepExpired(now)
	s.metrics.observeSweeperExpired(s.name, len(expired))
	for _, message := range expired {
		s.DispatchChunk(deadlineChunk(message.UUID))
	}
}
