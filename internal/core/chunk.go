package core

// RPCCode discriminates the three kinds of response chunk a handle proxy's
// callback can deliver for a message, per spec §6.
type RPCCode int

const (
	// RPCChunk carries a payload fragment; more chunks or a terminal marker
	// may follow.
	RPCChunk RPCCode = iota
	// RPCChoke is the clean-termination marker: no payload, no error.
	RPCChoke
	// RPCError is a terminal error; carries ErrorCode and ErrorMessage.
	RPCError
)

// ErrorCode classifies a terminal error surfaced to a Receiver.
type ErrorCode int

const (
	ErrorCodeNone ErrorCode = iota
	// ErrorCodeDeadline is synthesised by the deadline sweeper.
	ErrorCodeDeadline
	// ErrorCodeTransport is the generic class for transport/application
	// errors forwarded from a handle proxy's callback.
	ErrorCodeTransport
)

// ErrDeadlineMessage is the fixed error text the sweeper attaches to an
// expired message, per spec §4.6.
const ErrDeadlineMessage = "unhandled message expired"

// Chunk is a single response chunk crossing the handle-proxy boundary,
// addressed by the UUID of the message it answers.
type Chunk struct {
	UUID         string
	RPCCode      RPCCode
	ErrorCode    ErrorCode
	ErrorMessage string
	Payload      []byte
}

// DealerError is the {code, message} pair a terminally-errored Receiver
// surfaces to its consumer, per spec §7.
type DealerError struct {
	Code    ErrorCode
	Message string
}

func (e *DealerError) Error() string {
	return e.Message
}

func deadlineChunk(uuid string) Chunk {
	return Chunk{
		UUID:         uuid,
		RPCCode:      RPCError,
		ErrorCode:    ErrorCodeDeadline,
		ErrorMessage: ErrDeadlineMessage,
	}
}
