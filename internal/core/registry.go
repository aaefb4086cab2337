package core

import (
	"sync"
	"time"
	"weak"

	dealererrors "github.com/basaltrun/dealer/internal/errors"
)

// ErrDuplicateUUID re-exports dealererrors.ErrDuplicateUUID for callers and
// tests within this package.
var ErrDuplicateUUID = dealererrors.ErrDuplicateUUID

// ResponseRegistry maps a message UUID to a non-owning (weak) reference to
// its Receiver, per spec §4.1. The consumer holds the only strong reference;
// once it drops that reference the garbage collector is free to reclaim the
// Receiver, and the weak pointer resolves to nil on the next lookup or
// prune pass — the Go expression of the original's shared_ptr uniqueness
// check (see DESIGN.md).
type ResponseRegistry struct {
	mu            sync.Mutex
	items         map[string]weak.Pointer[Receiver]
	pruneInterval time.Duration
	lastPrune     time.Time
}

// NewResponseRegistry constructs an empty registry that amortises pruning to
// at most once per pruneInterval.
func NewResponseRegistry(pruneInterval time.Duration) *ResponseRegistry {
	return &ResponseRegistry{
		items:         make(map[string]weak.Pointer[Receiver]),
		pruneInterval: pruneInterval,
	}
}

// Register inserts receiver under uuid. It fails with ErrDuplicateUUID if an
// entry is already present — the UUID generator is trusted to be unique, so
// this indicates a programming bug per spec §4.1.
func (r *ResponseRegistry) Register(uuid string, receiver *Receiver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[uuid]; exists {
		return dealererrors.ErrDuplicateUUID
	}
	r.items[uuid] = weak.Make(receiver)
	return nil
}

// Lookup returns the live Receiver for uuid, or nil if absent or its
// consumer reference has already been dropped.
func (r *ResponseRegistry) Lookup(uuid string) *Receiver {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(uuid)
}

func (r *ResponseRegistry) lookupLocked(uuid string) *Receiver {
	ptr, ok := r.items[uuid]
	if !ok {
		return nil
	}
	receiver := ptr.Value()
	if receiver == nil {
		delete(r.items, uuid)
		return nil
	}
	return receiver
}

// PruneUnreferenced removes every entry whose Receiver has already been
// garbage collected.
func (r *ResponseRegistry) PruneUnreferenced() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
}

func (r *ResponseRegistry) pruneLocked() {
	for uuid, ptr := range r.items {
		if ptr.Value() == nil {
			delete(r.items, uuid)
		}
	}
}

// MaybePrune runs PruneUnreferenced only if pruneInterval has elapsed since
// the last prune, amortising the scan across the dispatch path per spec
// §4.1: response dispatch does not do a full scan on every chunk. It reports
// whether a prune pass actually ran.
func (r *ResponseRegistry) MaybePrune(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if now.Sub(r.lastPrune) < r.pruneInterval {
		return false
	}
	r.pruneLocked()
	r.lastPrune = now
	return true
}

// DiscardAll terminates every Receiver still referenced by a consumer and
// empties the registry. Used by Service teardown (spec §3): a Receiver whose
// consumer still holds a reference must observe the terminal flag rather
// than block or time out once the Service that would have delivered to it
// is gone. The registry lock is released before any per-Receiver lock is
// taken, preserving the lock ordering spec §5 requires.
func (r *ResponseRegistry) DiscardAll() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]weak.Pointer[Receiver])
	r.mu.Unlock()

	for _, ptr := range items {
		if receiver := ptr.Value(); receiver != nil {
			receiver.discard()
		}
	}
}

// Remove explicitly deletes uuid's entry, used for the administrative
// remove_stored_message operation (spec §6).
func (r *ResponseRegistry) Remove(uuid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, uuid)
}

// Len reports the number of tracked entries, including any not yet pruned.
func (r *ResponseRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
