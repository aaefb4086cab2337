package dealer

import dealererrors "github.com/basaltrun/dealer/internal/errors"

// Re-exported sentinel errors, so callers can use errors.Is against the
// dealer package directly rather than reaching into internal/errors.
var (
	ErrDuplicateUUID           = dealererrors.ErrDuplicateUUID
	ErrNilHandleProxy          = dealererrors.ErrNilHandleProxy
	ErrUnknownTransport        = dealererrors.ErrUnknownTransport
	ErrServiceRequired         = dealererrors.ErrServiceRequired
	ErrHandleRequired          = dealererrors.ErrHandleRequired
	ErrDealerClosed            = dealererrors.ErrDealerClosed
	ErrServiceClosed           = dealererrors.ErrServiceClosed
	ErrServiceNotFound         = dealererrors.ErrServiceNotFound
	ErrMessageNotFound         = dealererrors.ErrMessageNotFound
	ErrDiscoverySourceRequired = dealererrors.ErrDiscoverySourceRequired
)
