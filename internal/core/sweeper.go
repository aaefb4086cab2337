package core

import (
	"sync"
	"time"
)

// Sweeper runs sweepUnhandled at a fixed interval against one or more
// Services, synthesising deadline errors for expired unhandled messages
// (spec §4.6). It inspects only the unhandled store; in-flight messages are
// the HandleProxy's own responsibility.
type Sweeper struct {
	interval time.Duration

	mu       sync.Mutex
	services []*Service

	stop chan struct{}
	done chan struct{}
}

// NewSweeper constructs a Sweeper with the given fixed tick interval. A
// typical interval is 100ms per spec §4.6's design constant.
func NewSweeper(interval time.Duration) *Sweeper {
	return &Sweeper{interval: interval}
}

// Watch adds svc to the set of services this sweeper inspects on every tick.
func (sw *Sweeper) Watch(svc *Service) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.services = append(sw.services, svc)
}

// Unwatch removes svc from the watched set, e.g. on Service teardown.
func (sw *Sweeper) Unwatch(svc *Service) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	for i, s := range sw.services {
		if s == svc {
			sw.services = append(sw.services[:i], sw.services[i+1:]...)
			return
		}
	}
}

// Start launches the sweeper's background goroutine. It is idempotent only
// in the sense of a single call per Sweeper; calling Start twice on the same
// Sweeper will start two tickers.
func (sw *Sweeper) Start() {
	sw.stop = make(chan struct{})
	sw.done = make(chan struct{})

	ticker := time.NewTicker(sw.interval)
	go func() {
		defer close(sw.done)
		defer ticker.Stop()
		for {
			select {
			case <-sw.stop:
				return
			case now := <-ticker.C:
				sw.tick(now)
			}
		}
	}()
}

func (sw *Sweeper) tick(now time.Time) {
	sw.mu.Lock()
	services := make([]*Service, len(sw.services))
	copy(services, sw.services)
	sw.mu.Unlock()

	for _, svc := range services {
		svc.sweepUnhandled(now)
	}
}

// Stop halts the background goroutine and waits for its current tick, if
// any, to finish.
func (sw *Sweeper) Stop() {
	if sw.stop == nil {
		return
	}
	close(sw.stop)
	<-sw.done
}
