// Package registry implements ports.Registry over the npm registry HTTP API.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// acceptHeader asks for the abbreviated install document when the registry has one.
const acceptHeader = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8, */*"

const (
	defaultRetries = 3
	defaultDelay   = time.Second
)

// Client implements ports.Registry. Package documents are fetched once per
// name for the lifetime of the client.
type Client struct {
	registry   string
	httpClient *http.Client
	retries    int
	delay      time.Duration
	tracer     ports.Tracer

	mu    sync.RWMutex
	docs  map[string]*domain.PackageMetadata
	group singleflight.Group
}

var _ ports.Registry = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRetries sets how often a transient failure is retried and the initial backoff.
func WithRetries(retries int, delay time.Duration) Option {
	return func(cl *Client) {
		cl.retries = retries
		cl.delay = delay
	}
}

// WithTracer records a span per registry request.
func WithTracer(t ports.Tracer) Option {
	return func(cl *Client) { cl.tracer = t }
}

// New creates a Client for registry.
func New(registry string, opts ...Option) *Client {
	c := &Client{
		registry:   domain.NormalizeRegistry(registry),
		httpClient: http.DefaultClient,
		retries:    defaultRetries,
		delay:      defaultDelay,
		docs:       make(map[string]*domain.PackageMetadata),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the normalized registry URL.
func (c *Client) Registry() string {
	return c.registry
}

// Metadata returns the document of name, fetching it on first use.
func (c *Client) Metadata(ctx context.Context, name string) (*domain.PackageMetadata, error) {
	c.mu.RLock()
	doc, ok := c.docs[name]
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		doc, err := c.fetchMetadata(ctx, name)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[name] = doc
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PackageMetadata), nil
}

func (c *Client) fetchMetadata(ctx context.Context, name string) (*domain.PackageMetadata, error) {
	if c.tracer != nil {
		var span ports.Span
		ctx, span = c.tracer.Start(ctx, "metadata "+name, ports.WithKind("metadata"))
		defer span.End()
	}

	url := c.registry + escapeName(name)

	var body []byte
	err := retry(ctx, c.retries+1, c.delay, func() error {
		resp, err := c.get(ctx, url, acceptHeader)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return &retryableError{err: err}
		}
		return nil
	})
	if err != nil {
		return nil, c.failure(err, "package", name)
	}

	var raw document
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRegistryResponseInvalid.Error()), "package", name)
	}
	return raw.toDomain(name), nil
}

// Fetch downloads the tarball at url. The body is read completely before
// Fetch returns, so a connection dropped halfway is retried like any other
// transient failure.
func (c *Client) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	var data []byte
	err := retry(ctx, c.retries+1, c.delay, func() error {
		resp, err := c.get(ctx, url, "*/*")
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &retryableError{err: err}
		}
		return nil
	})
	if err != nil {
		return nil, c.failure(err, "url", url)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// get performs a GET and classifies the response. On success the caller owns the body.
func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrRegistryUnavailable.Error())
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, domain.ErrPackageNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		_ = resp.Body.Close()
		return nil, &retryableError{err: zerr.With(domain.ErrRegistryUnavailable, "status_code", resp.StatusCode)}
	default:
		_ = resp.Body.Close()
		return nil, zerr.With(domain.ErrRegistryUnavailable, "status_code", resp.StatusCode)
	}
}

// failure turns a retry outcome into a domain error carrying key=value.
func (c *Client) failure(err error, key, value string) error {
	switch {
	case errors.Is(err, domain.ErrPackageNotFound):
		return zerr.With(domain.ErrPackageNotFound, key, value)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		wrapped := zerr.With(zerr.Wrap(err, domain.ErrRegistryUnavailable.Error()), key, value)
		return zerr.With(wrapped, "attempts", c.retries+1)
	}
}

// escapeName encodes the slash of a scoped name the way the registry expects.
func escapeName(name string) string {
	return strings.Replace(name, "/", "%2f", 1)
}
