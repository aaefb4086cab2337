package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/logging"
)

// Poller periodically fetches every registered handle's endpoint set and
// hands the combined snapshot to apply, grounded on the same fixed-interval
// ticker pattern as core.Sweeper.
type Poller struct {
	interval time.Duration
	timeout  time.Duration
	apply    func(map[string][]core.Endpoint)
	logger   logging.Logger

	mu       sync.Mutex
	fetchers map[string]HostsFetcher

	stop chan struct{}
	done chan struct{}
}

// NewPoller constructs a Poller. apply is called with the freshly fetched
// snapshot on every tick; typically it is a Service's ApplySnapshot method.
func NewPoller(interval, timeout time.Duration, apply func(map[string][]core.Endpoint), logger logging.Logger) *Poller {
	return &Poller{
		interval: interval,
		timeout:  timeout,
		apply:    apply,
		logger:   logger,
		fetchers: make(map[string]HostsFetcher),
	}
}

// Watch registers fetcher as the source of truth for handleName's endpoint
// set on future ticks.
func (p *Poller) Watch(handleName string, fetcher HostsFetcher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchers[handleName] = fetcher
}

// Unwatch stops polling handleName.
func (p *Poller) Unwatch(handleName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.fetchers, handleName)
}

// Start launches the poller's background goroutine, running one fetch pass
// immediately and then on every tick.
func (p *Poller) Start() {
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	ticker := time.NewTicker(p.interval)
	go func() {
		defer close(p.done)
		defer ticker.Stop()

		p.pollOnce()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.pollOnce()
			}
		}
	}()
}

func (p *Poller) pollOnce() {
	p.mu.Lock()
	fetchers := make(map[string]HostsFetcher, len(p.fetchers))
	for name, fetcher := range p.fetchers {
		fetchers[name] = fetcher
	}
	p.mu.Unlock()

	if len(fetchers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	snapshot := make(map[string][]core.Endpoint, len(fetchers))
	for name, fetcher := range fetchers {
		endpoints, err := fetcher.FetchEndpoints(ctx)
		if err != nil {
			p.logger.Error("hosts fetch failed", err, logging.Fields{"handle": name})
			continue
		}
		snapshot[name] = endpoints
	}

	p.apply(snapshot)
}

// Stop halts the background goroutine and waits for its current pass, if
// any, to finish.
func (p *Poller) Stop() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
}
