// Package discovery implements the external hosts-fetcher collaborator the
// routing core consumes (spec §1, "out of scope" list): it produces
// handle -> endpoint-set snapshots and feeds them to a Service's
// ApplySnapshot. Concrete fetchers here are static, HTTP-polled, or a
// caller-supplied function; the wire format for the HTTP fetcher follows
// the original hosts-data line format (see parseHostsData).
package discovery

import (
	"context"

	"github.com/basaltrun/dealer/internal/core"
)

// HostsFetcher retrieves the current endpoint set for one handle. It is the
// unit the core's discovery layer is built from; a Poller combines several
// named fetchers into the handle->endpoints snapshot ApplySnapshot expects.
type HostsFetcher interface {
	FetchEndpoints(ctx context.Context) ([]core.Endpoint, error)
}

// FetcherFunc adapts a plain function to a HostsFetcher.
type FetcherFunc func(ctx context.Context) ([]core.Endpoint, error)

// FetchEndpoints implements HostsFetcher.
func (f FetcherFunc) FetchEndpoints(ctx context.Context) ([]core.Endpoint, error) {
	return f(ctx)
}

// Static is a HostsFetcher that always returns the same fixed endpoint set,
// useful for configuration-file-driven deployments and tests.
type Static struct {
	Endpoints []core.Endpoint
}

// FetchEndpoints implements HostsFetcher.
func (s Static) FetchEndpoints(ctx context.Context) ([]core.Endpoint, error) {
	return s.Endpoints, nil
}
