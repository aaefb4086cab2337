package core

// HandleProxy is the Service router's view of a transport backend. It is
// structurally identical to transport.HandleProxy — duplicated here because
// core cannot import transport (transport already imports core for Message,
// Chunk and Endpoint). Any value satisfying transport.HandleProxy already
// satisfies this interface; Go's structural typing needs no adapter.
type HandleProxy interface {
	Enqueue(message *Message) error
	SetResponseCallback(fn func(Chunk))
	UpdateEndpoints(endpoints []Endpoint)
	Kill()
	Drain() []*Message
}
