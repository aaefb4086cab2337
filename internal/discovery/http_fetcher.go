package discovery

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/basaltrun/dealer/internal/core"
)

// HTTPFetcher retrieves a handle's endpoint set from a plain-text resource
// over HTTP, one endpoint per line, in the "hosts data" format the original
// implementation's address parser accepts (see parseHostsData).
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// FetchEndpoints implements HostsFetcher.
func (f *HTTPFetcher) FetchEndpoints(ctx context.Context) ([]core.Endpoint, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseHostsData(string(body)), nil
}

// parseHostsData parses one endpoint per line, in the form
// "[transport://]host[:port]". Blank lines and lines starting with "#" are
// skipped. A line with no recognised transport prefix defaults to tcp, and
// a line with no port defaults to port 0 — grounded on the original
// implementation's hosts_fetcher_iface::parse_hosts_data. Malformed lines
// are skipped rather than failing the whole fetch.
func parseHostsData(data string) []core.Endpoint {
	var endpoints []core.Endpoint

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		transport := core.TransportUndefined
		if idx := strings.Index(line, "://"); idx != -1 {
			transport = core.ParseTransportKind(line[:idx])
			line = line[idx+len("://"):]
		}
		if transport == core.TransportUndefined {
			transport = core.TransportTCP
		}

		host := line
		var port uint16
		if idx := strings.LastIndex(line, ":"); idx != -1 {
			host = line[:idx]
			parsedPort, err := strconv.ParseUint(line[idx+1:], 10, 16)
			if err != nil {
				continue
			}
			port = uint16(parsedPort)
		}

		if host == "" {
			continue
		}
		endpoints = append(endpoints, core.Endpoint{Transport: transport, Address: host, Port: port})
	}

	return endpoints
}
