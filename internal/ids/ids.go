// Package ids generates the two identifier shapes the dealer runtime needs:
// UUIDs for message identity and ULIDs for outgoing transport message IDs.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewMessageUUID returns a new client-generated message identifier. It is the
// identity spec §3 requires to be "unique across the process".
func NewMessageUUID() string {
	return uuid.NewString()
}

// NewULID returns a time-sortable, monotonic identifier. The handle-proxy
// adapter uses it as the ID of each outgoing Watermill message. It is never
// used for message identity.
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return id.String()
}
