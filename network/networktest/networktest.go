// Package networktest routes portal requests to an in-process test server.
package networktest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/rpdl/rpdl/network"
)

type rewriteTransport struct {
	target *url.URL
	hosts  []string
	next   http.RoundTripper
}

func (t *rewriteTransport) matches(host string) bool {
	if len(t.hosts) == 0 {
		return true
	}

	for _, h := range t.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.matches(req.URL.Hostname()) {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.URL.Scheme = t.target.Scheme
	clone.URL.Host = t.target.Host
	clone.Host = t.target.Host

	resp, err := t.next.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	// Callers observe the URL they asked for.
	resp.Request = req
	return resp, nil
}

// Client returns a client that sends requests for the given hosts (and their
// subdomains) to server, keeping path and query. With no hosts every request
// is rerouted.
func Client(server *httptest.Server, hosts ...string) *network.HTTPClient {
	target, err := url.Parse(server.URL)
	if err != nil {
		panic(err)
	}

	return network.Wrap(&http.Client{
		Transport: &rewriteTransport{
			target: target,
			hosts:  hosts,
			next:   server.Client().Transport,
		},
	})
}
