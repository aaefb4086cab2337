package core

import "fmt"

// TransportKind enumerates the wire transports an Endpoint can identify.
// Unlike the original implementation's lazily-initialised literal maps, this
// is a compile-time constant table — there is no runtime state to guard.
type TransportKind int

const (
	TransportUndefined TransportKind = iota
	TransportInproc
	TransportIPC
	TransportTCP
	TransportPGM
	TransportEPGM
)

var transportKindNames = [...]string{
	TransportUndefined: "",
	TransportInproc:     "inproc",
	TransportIPC:        "ipc",
	TransportTCP:        "tcp",
	TransportPGM:        "pgm",
	TransportEPGM:       "epgm",
}

// String renders the transport kind using the same literal the kind was
// parsed from (empty string for TransportUndefined).
func (k TransportKind) String() string {
	if int(k) < 0 || int(k) >= len(transportKindNames) {
		return ""
	}
	return transportKindNames[k]
}

// ParseTransportKind recovers a TransportKind from its wire literal.
// Unknown literals resolve to TransportUndefined, matching the original's
// "transport_from_string" fallback.
func ParseTransportKind(literal string) TransportKind {
	for k, name := range transportKindNames {
		if name == literal && k != int(TransportUndefined) {
			return TransportKind(k)
		}
	}
	return TransportUndefined
}

// Endpoint identifies one remote peer a handle's transport may connect to.
// The router treats endpoints opaquely; only the transport backend
// interprets Address/Port.
type Endpoint struct {
	Transport TransportKind
	Address   string
	Port      uint16
}

// String renders the endpoint as a connection string, e.g. "tcp://10.0.0.1:4000".
func (e Endpoint) String() string {
	transport := e.Transport.String()
	if transport == "" {
		transport = TransportTCP.String()
	}
	return fmt.Sprintf("%s://%s:%d", transport, e.Address, e.Port)
}
