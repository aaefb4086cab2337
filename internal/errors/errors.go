// Package errors holds the sentinel errors the dealer runtime returns for
// programming-bug conditions and configuration mistakes.
package errors

import sterrors "errors"

var (
	ErrDuplicateUUID     = sterrors.New("dealer: duplicate message uuid")
	ErrNilHandleProxy    = sterrors.New("dealer: nil handle proxy")
	ErrUnknownTransport  = sterrors.New("dealer: unknown transport")
	ErrServiceRequired   = sterrors.New("dealer: service name is required")
	ErrHandleRequired    = sterrors.New("dealer: handle name is required")
	ErrDealerClosed      = sterrors.New("dealer: dealer is closed")
	ErrServiceClosed     = sterrors.New("dealer: service is closed")
	ErrServiceNotFound   = sterrors.New("dealer: service not found")
	ErrMessageNotFound   = sterrors.New("dealer: message not found")
	ErrDiscoverySourceRequired = sterrors.New("dealer: discovery source is required")
)
