package dealer

import (
	"github.com/basaltrun/dealer/internal/config"
	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/discovery"
	"github.com/basaltrun/dealer/internal/logging"
)

// Re-exported core types, so callers never need to import the internal
// packages directly — mirrors the teacher's libapi.go alias-block idiom.
type (
	Config = config.Config

	Message  = core.Message
	Path     = core.Path
	Policy   = core.Policy
	Endpoint = core.Endpoint
	Chunk    = core.Chunk
	Receiver = core.Receiver
	GetResult = core.GetResult

	TransportKind = core.TransportKind
	RPCCode       = core.RPCCode
	ErrorCode     = core.ErrorCode
	DealerError   = core.DealerError

	AdminSnapshot = core.AdminSnapshot

	Logger = logging.Logger
	Fields = logging.Fields

	HostsFetcher = discovery.HostsFetcher
	FetcherFunc  = discovery.FetcherFunc
	StaticHosts  = discovery.Static
)

// Transport kind constants.
const (
	TransportUndefined = core.TransportUndefined
	TransportInproc     = core.TransportInproc
	TransportIPC        = core.TransportIPC
	TransportTCP        = core.TransportTCP
	TransportPGM        = core.TransportPGM
	TransportEPGM       = core.TransportEPGM
)

// RPC chunk codes.
const (
	RPCChunk = core.RPCChunk
	RPCChoke = core.RPCChoke
	RPCError = core.RPCError
)

// Error codes.
const (
	ErrorCodeNone      = core.ErrorCodeNone
	ErrorCodeDeadline  = core.ErrorCodeDeadline
	ErrorCodeTransport = core.ErrorCodeTransport
)

// ParseTransportKind recovers a TransportKind from its wire literal.
var ParseTransportKind = core.ParseTransportKind

// NewSlogLogger and NewWatermillLogger construct a Logger.
var (
	NewSlogLogger     = logging.NewSlogLogger
	NewWatermillLogger = logging.NewWatermillLogger
)

// ErrReceiverTimeout is returned by Receiver.Get when its timeout elapses.
var ErrReceiverTimeout = core.ErrReceiverTimeout
