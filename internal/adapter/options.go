package adapter

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout for vendor calls.
const DefaultTimeout = 60 * time.Second

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option is a functional option shared by the vendor adapters.
type Option func(*clientOptions)

// WithBaseURL overrides the vendor API endpoint.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout. A client passed with
// WithHTTPClient is copied, never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

func newClientOptions(opts []Option) *clientOptions {
	o := &clientOptions{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.timeout > 0 && o.httpClient.Timeout != o.timeout {
		client := *o.httpClient
		client.Timeout = o.timeout
		o.httpClient = &client
	}
	return o
}
