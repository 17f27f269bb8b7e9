// Package network provides the HTTP capability the download pipeline depends on.
//
// The pipeline only needs two operations, a GET returning the raw response and a
// HEAD returning the URL reached after redirects, so tests can substitute an
// in-process server or any other implementation of Client.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rpdl/rpdl/key"
	"github.com/rpdl/rpdl/log"
	"github.com/spf13/viper"
)

// Client is the HTTP capability used by the metadata fetcher, the variant resolver and the assembler.
type Client interface {
	// Get issues a GET with the given extra headers. The caller owns the response body.
	Get(ctx context.Context, url string, header http.Header) (*http.Response, error)

	// Head issues a HEAD, follows redirects and returns the final URL.
	Head(ctx context.Context, url string) (string, error)
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s from %s", e.Code, http.StatusText(e.Code), e.URL)
}

// Options configures an HTTPClient.
type Options struct {
	// Timeout bounds the wait for response headers. Bodies are not bounded so
	// large direct downloads can complete.
	Timeout time.Duration

	// Fingerprint replaces the Go TLS handshake with a desktop Chrome one.
	Fingerprint bool
}

// OptionsFromConfig reads Options from the global configuration.
func OptionsFromConfig() Options {
	return Options{
		Timeout:     time.Duration(viper.GetInt(key.DownloadTimeout)) * time.Second,
		Fingerprint: viper.GetBool(key.NetworkTLSFingerprint),
	}
}

// HTTPClient implements Client on top of net/http.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// New builds an HTTPClient with a tuned transport.
func New(options Options) *HTTPClient {
	var transport http.RoundTripper = newTransport(options.Timeout)
	if options.Fingerprint {
		transport = newFingerprintTransport(options.Timeout)
	}

	return &HTTPClient{
		client:  &http.Client{Transport: transport},
		timeout: options.Timeout,
	}
}

// Wrap adapts an existing http.Client.
func Wrap(client *http.Client) *HTTPClient {
	return &HTTPClient{client: client}
}

func newTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.IdleConnTimeout = 30 * time.Second
	if timeout > 0 {
		t.ResponseHeaderTimeout = timeout
	}
	return t
}

// Get implements Client.
func (c *HTTPClient) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	log.Debugf("GET %s", url)
	return c.client.Do(req)
}

// Head implements Client. No User-Agent is sent: the portal answers agent-less
// requests with a redirect to the progressive MP4 rendition.
func (c *HTTPClient) Head(ctx context.Context, url string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "")

	log.Debugf("HEAD %s", url)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}

// Fetch GETs url and reads the whole body. Statuses outside 2xx become a
// *StatusError. The configured timeout covers the full exchange.
func Fetch(ctx context.Context, client Client, url string, header http.Header) ([]byte, *http.Response, error) {
	ctx, cancel := WithTimeout(ctx, client)
	defer cancel()

	resp, err := client.Get(ctx, url, header)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if err := CheckStatus(resp); err != nil {
		return nil, resp, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("read body: %w", err)
	}
	return body, resp, nil
}

// WithTimeout bounds ctx by the timeout client was built with, if any. Use it
// around exchanges whose bodies are small enough to read within that time.
func WithTimeout(ctx context.Context, client Client) (context.Context, context.CancelFunc) {
	if hc, ok := client.(*HTTPClient); ok && hc.timeout > 0 {
		return context.WithTimeout(ctx, hc.timeout)
	}
	return context.WithCancel(ctx)
}

// CheckStatus returns a *StatusError unless resp has a 2xx status.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	url := ""
	if resp.Request != nil {
		url = resp.Request.URL.String()
	}
	return &StatusError{URL: url, Code: resp.StatusCode}
}
