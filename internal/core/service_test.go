package core

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dealererrors "github.com/basaltrun/dealer/internal/errors"
	"github.com/basaltrun/dealer/internal/logging"
)

// fakeProxy is an in-process HandleProxy test double: Enqueue just records
// the message, and the test drives response chunks directly through the
// callback the router registered, standing in for a real transport.
type fakeProxy struct {
	mu        sync.Mutex
	enqueued  []*Message
	callback  func(Chunk)
	endpoints []Endpoint
	killed    bool
}

func newFakeProxy() *fakeProxy {
	return &fakeProxy{}
}

func (p *fakeProxy) Enqueue(m *Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m.IsSent = true
	p.enqueued = append(p.enqueued, m)
	return nil
}

func (p *fakeProxy) SetResponseCallback(fn func(Chunk)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callback = fn
}

func (p *fakeProxy) UpdateEndpoints(endpoints []Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endpoints = endpoints
}

func (p *fakeProxy) Kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = true
}

func (p *fakeProxy) Drain() []*Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	drained := p.enqueued
	p.enqueued = nil
	return drained
}

func (p *fakeProxy) deliver(chunk Chunk) {
	p.mu.Lock()
	fn := p.callback
	p.mu.Unlock()
	fn(chunk)
}

func (p *fakeProxy) enqueuedUUIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	uuids := make([]string, len(p.enqueued))
	for i, m := range p.enqueued {
		uuids[i] = m.UUID
	}
	return uuids
}

// proxyFactory hands out a fresh fakeProxy per handle creation and remembers
// the latest one built for each handle name, so tests can drive chunks
// through whichever proxy is currently live after a teardown/recreate cycle.
type proxyFactory struct {
	mu     sync.Mutex
	latest map[string]*fakeProxy
}

func newProxyFactory() *proxyFactory {
	return &proxyFactory{latest: make(map[string]*fakeProxy)}
}

func (f *proxyFactory) build(path Path, endpoints []Endpoint) (HandleProxy, error) {
	p := newFakeProxy()
	p.endpoints = endpoints
	f.mu.Lock()
	f.latest[path.Handle] = p
	f.mu.Unlock()
	return p, nil
}

func (f *proxyFactory) proxyFor(handle string) *fakeProxy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest[handle]
}

func noopLogger() logging.Logger {
	return discardLogger{}
}

type discardLogger struct{}

func (discardLogger) With(logging.Fields) logging.Logger        { return discardLogger{} }
func (discardLogger) Debug(string, logging.Fields)               {}
func (discardLogger) Info(string, logging.Fields)                {}
func (discardLogger) Error(string, error, logging.Fields)        {}
func (discardLogger) Trace(string, logging.Fields)                {}

func newTestService(factory *proxyFactory) *Service {
	return NewService("s", "app", factory.build, time.Second, noopLogger())
}

// S1: submit before the handle exists blocks the Receiver; applying a
// snapshot creates the handle and delivers the backlog; a chunk then a
// choke yield the payload followed by end.
func TestService_S1_SubmitBeforeHandleExistsThenRespond(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	receiver, err := svc.Submit("h", []byte("p"), Policy{})
	require.NoError(t, err)

	_, err = receiver.Get(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrReceiverTimeout, "no handle yet, no response possible")

	svc.ApplySnapshot(map[string][]Endpoint{"h": {{Transport: TransportTCP, Address: "10.0.0.1", Port: 4000}}})

	proxy := factory.proxyFor("h")
	require.NotNil(t, proxy)
	require.Eventually(t, func() bool { return len(proxy.enqueuedUUIDs()) == 1 }, time.Second, time.Millisecond)

	proxy.deliver(Chunk{UUID: receiver.UUID(), RPCCode: RPCChunk, Payload: []byte("r1")})
	proxy.deliver(Chunk{UUID: receiver.UUID(), RPCCode: RPCChoke})

	result, err := receiver.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), result.Payload)

	result, err = receiver.Get(time.Second)
	require.NoError(t, err)
	assert.True(t, result.Done)
}

// S2: same as S1 but the stream terminates with an error after one chunk.
func TestService_S2_SubmitThenErrorAfterOneChunk(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	receiver, err := svc.Submit("h", []byte("p"), Policy{})
	require.NoError(t, err)

	svc.ApplySnapshot(map[string][]Endpoint{"h": {{Transport: TransportTCP, Address: "10.0.0.1", Port: 4000}}})
	proxy := factory.proxyFor("h")
	require.Eventually(t, func() bool { return len(proxy.enqueuedUUIDs()) == 1 }, time.Second, time.Millisecond)

	proxy.deliver(Chunk{UUID: receiver.UUID(), RPCCode: RPCChunk, Payload: []byte("r1")})
	proxy.deliver(Chunk{UUID: receiver.UUID(), RPCCode: RPCError, ErrorCode: ErrorCode(7), ErrorMessage: "boom"})

	result, err := receiver.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), result.Payload)

	_, err = receiver.Get(time.Second)
	var dealerErr *DealerError
	require.ErrorAs(t, err, &dealerErr)
	assert.Equal(t, ErrorCode(7), dealerErr.Code)
	assert.Equal(t, "boom", dealerErr.Message)

	result, err = receiver.Get(time.Second)
	require.NoError(t, err)
	assert.True(t, result.Done)
}

// S3: three messages queued for an unknown handle arrive at the proxy in
// exactly their submission order once the handle is created.
func TestService_S3_UnhandledBacklogDrainsInFIFOOrder(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	r1, err := svc.Submit("h", []byte("m1"), Policy{})
	require.NoError(t, err)
	r2, err := svc.Submit("h", []byte("m2"), Policy{})
	require.NoError(t, err)
	r3, err := svc.Submit("h", []byte("m3"), Policy{})
	require.NoError(t, err)

	svc.ApplySnapshot(map[string][]Endpoint{"h": {{Transport: TransportTCP, Address: "10.0.0.1", Port: 4000}}})
	proxy := factory.proxyFor("h")
	require.Eventually(t, func() bool { return len(proxy.enqueuedUUIDs()) == 3 }, time.Second, time.Millisecond)

	assert.Equal(t, []string{r1.UUID(), r2.UUID(), r3.UUID()}, proxy.enqueuedUUIDs())
}

// S4: an unhandled message past its deadline is surfaced as a deadline
// error by the sweeper without any snapshot ever arriving.
func TestService_S4_DeadlineSweeperExpiresUnhandledMessage(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	policy := Policy{Deadline: time.Now().Add(50 * time.Millisecond), Deadlined: true}
	receiver, err := svc.Submit("h", []byte("p"), policy)
	require.NoError(t, err)

	sweeper := NewSweeper(20 * time.Millisecond)
	sweeper.Watch(svc)
	sweeper.Start()
	defer sweeper.Stop()

	_, err = receiver.Get(time.Second)
	var dealerErr *DealerError
	require.ErrorAs(t, err, &dealerErr)
	assert.Equal(t, ErrorCodeDeadline, dealerErr.Code)
	assert.Equal(t, ErrDeadlineMessage, dealerErr.Message)
}

// S5: removing a handle returns its in-flight message to the unhandled
// store with transport flags reset; recreating the handle re-enqueues it.
func TestService_S5_HandleRemovalRequeuesThenRecreationResends(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	receiver, err := svc.Submit("h", []byte("p"), Policy{})
	require.NoError(t, err)

	svc.ApplySnapshot(map[string][]Endpoint{"h": {{Transport: TransportTCP, Address: "10.0.0.1", Port: 4000}}})
	firstProxy := factory.proxyFor("h")
	require.Eventually(t, func() bool { return len(firstProxy.enqueuedUUIDs()) == 1 }, time.Second, time.Millisecond)

	svc.ApplySnapshot(map[string][]Endpoint{})
	assert.Equal(t, 1, svc.unhandled.Len(), "the drained message must reappear in the unhandled store")

	svc.ApplySnapshot(map[string][]Endpoint{"h": {{Transport: TransportTCP, Address: "10.0.0.2", Port: 4001}}})
	secondProxy := factory.proxyFor("h")
	require.Eventually(t, func() bool { return len(secondProxy.enqueuedUUIDs()) == 1 }, time.Second, time.Millisecond)

	require.Len(t, secondProxy.enqueued, 1)
	requeued := secondProxy.enqueued[0]
	assert.Equal(t, receiver.UUID(), requeued.UUID)
	assert.False(t, requeued.AckReceived)
}

// S6: dropping the consumer's Receiver reference causes a subsequent
// dispatch to discard the chunk and evict the registry entry.
func TestService_S6_AbandonedReceiverIsPrunedAndChunkDropped(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	var uuid string
	func() {
		receiver, err := svc.Submit("h", []byte("p"), Policy{})
		require.NoError(t, err)
		uuid = receiver.UUID()
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		svc.DispatchChunk(Chunk{UUID: uuid, RPCCode: RPCChunk, Payload: []byte("late")})
		return svc.registry.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

// TestService_CloseTerminatesPendingReceivers covers spec.md §3's teardown
// requirement: a Receiver whose consumer still holds a reference must
// observe the terminal flag after Close, rather than block or time out.
func TestService_CloseTerminatesPendingReceivers(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	unhandledReceiver, err := svc.Submit("never-created", []byte("p"), Policy{})
	require.NoError(t, err)

	inFlightReceiver, err := svc.Submit("h", []byte("p"), Policy{})
	require.NoError(t, err)
	svc.ApplySnapshot(map[string][]Endpoint{"h": {{Transport: TransportTCP, Address: "10.0.0.1", Port: 4000}}})
	proxy := factory.proxyFor("h")
	require.Eventually(t, func() bool { return len(proxy.enqueuedUUIDs()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, svc.Close())

	result, err := unhandledReceiver.Get(time.Second)
	require.NoError(t, err)
	assert.True(t, result.Done)

	result, err = inFlightReceiver.Get(time.Second)
	require.NoError(t, err)
	assert.True(t, result.Done)
}

func TestService_SubmitRejectsEmptyHandleName(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	_, err := svc.Submit("", []byte("p"), Policy{})
	assert.Error(t, err)
}

func TestService_CloseDrainsHandlesAndRejectsFurtherSubmissions(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	_, err := svc.Submit("h", []byte("p"), Policy{})
	require.NoError(t, err)
	svc.ApplySnapshot(map[string][]Endpoint{"h": {{Transport: TransportTCP, Address: "10.0.0.1", Port: 4000}}})

	proxy := factory.proxyFor("h")
	require.Eventually(t, func() bool { return len(proxy.enqueuedUUIDs()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, svc.Close())
	assert.True(t, proxy.killed)

	_, err = svc.Submit("h2", []byte("p"), Policy{})
	assert.ErrorIs(t, err, dealererrors.ErrServiceClosed)
}

func TestService_StoredMessagesCountReflectsRegistrySize(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	_, err := svc.Submit("h", []byte("p1"), Policy{})
	require.NoError(t, err)
	_, err = svc.Submit("h", []byte("p2"), Policy{})
	require.NoError(t, err)

	assert.Equal(t, 2, svc.StoredMessagesCount())
}

func TestService_RemoveStoredMessageDeletesFromBothStores(t *testing.T) {
	factory := newProxyFactory()
	svc := newTestService(factory)

	receiver, err := svc.Submit("h", []byte("p"), Policy{})
	require.NoError(t, err)

	svc.RemoveStoredMessage(receiver.UUID())
	assert.Equal(t, 0, svc.StoredMessagesCount())
	assert.Equal(t, 0, svc.unhandled.Len())
}
