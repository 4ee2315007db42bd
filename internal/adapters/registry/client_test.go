package registry_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"testing/iotest"
	"time"

	"github.com/mjgerace/pnpm/internal/adapters/registry"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const semverDoc = `{
  "name": "@types/semver",
  "dist-tags": {"latest": "v5.4.0"},
  "versions": {
    "5.3.31": {
      "name": "@types/semver",
      "version": "5.3.31",
      "dist": {"shasum": "b999d7d935f43f5207b01b00d3de20852f4ca75f", "tarball": "https://registry.npmjs.org/@types/semver/-/semver-5.3.31.tgz"}
    },
    "v5.4.0": {
      "name": "@types/semver",
      "version": "5.4.0",
      "dependencies": {"is-positive": "^1.0.0"},
      "dist": {"integrity": "sha512-AAAA", "shasum": "abc", "tarball": "https://registry.npmjs.org/@types/semver/-/semver-5.4.0.tgz"}
    },
    "not-a-version": {"name": "@types/semver", "version": "x"}
  }
}`

func TestClient_Metadata(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/@types%2fsemver", r.URL.EscapedPath())
		assert.Contains(t, r.Header.Get("Accept"), "application/vnd.npm.install-v1+json")
		_, _ = io.WriteString(w, semverDoc)
	}))
	t.Cleanup(srv.Close)

	c := registry.New(srv.URL)

	meta, err := c.Metadata(t.Context(), "@types/semver")
	require.NoError(t, err)

	assert.Equal(t, "@types/semver", meta.Name)
	assert.Equal(t, "5.4.0", meta.DistTags["latest"])
	assert.Equal(t, []string{"5.3.31", "5.4.0"}, meta.VersionList())
	assert.Equal(t, "sha512-AAAA", meta.Versions["5.4.0"].Dist.Integrity)
	assert.Equal(t, "^1.0.0", meta.Versions["5.4.0"].Dependencies["is-positive"])

	_, err = c.Metadata(t.Context(), "@types/semver")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "documents are cached per name")
}

func TestClient_Metadata_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := registry.New(srv.URL).Metadata(t.Context(), "not-a-package")
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrPackageNotFound))
}

func TestClient_Metadata_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, semverDoc)
	}))
	t.Cleanup(srv.Close)

	c := registry.New(srv.URL, registry.WithRetries(2, time.Millisecond))

	_, err := c.Metadata(t.Context(), "@types/semver")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_Metadata_RetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := registry.New(srv.URL, registry.WithRetries(1, time.Millisecond)).Metadata(t.Context(), "is-positive")
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrRegistryUnavailable))
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_Metadata_NoRetryOnClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := registry.New(srv.URL, registry.WithRetries(3, time.Millisecond)).Metadata(t.Context(), "is-positive")
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrRegistryUnavailable))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Metadata_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}))
	t.Cleanup(srv.Close)

	_, err := registry.New(srv.URL).Metadata(t.Context(), "is-positive")
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrRegistryResponseInvalid))
}

// truncatingTransport drops the connection halfway through the first body.
type truncatingTransport struct {
	data  string
	calls atomic.Int32
}

func (f *truncatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body io.Reader = strings.NewReader(f.data)
	if f.calls.Add(1) == 1 {
		body = io.MultiReader(strings.NewReader(f.data[:len(f.data)/2]), iotest.ErrReader(syscall.ECONNRESET))
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(body),
		Request:    req,
	}, nil
}

func TestClient_Fetch_BrokenBodyIsRetried(t *testing.T) {
	transport := &truncatingTransport{data: "tarball-bytes"}
	c := registry.New("http://localhost:4873",
		registry.WithHTTPClient(&http.Client{Transport: transport}),
		registry.WithRetries(3, 0))

	body, err := c.Fetch(t.Context(), "http://localhost:4873/is-positive/-/is-positive-1.0.0.tgz")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "tarball-bytes", string(data))
	assert.Equal(t, int32(2), transport.calls.Load())
}

func TestClient_Fetch_BrokenBodyRetriesExhausted(t *testing.T) {
	transport := &alwaysTruncatingTransport{}
	c := registry.New("http://localhost:4873",
		registry.WithHTTPClient(&http.Client{Transport: transport}),
		registry.WithRetries(2, time.Millisecond))

	_, err := c.Fetch(t.Context(), "http://localhost:4873/is-positive/-/is-positive-1.0.0.tgz")
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrRegistryUnavailable))
	assert.Equal(t, int32(3), transport.calls.Load())
}

// alwaysTruncatingTransport never delivers a complete body.
type alwaysTruncatingTransport struct{ calls atomic.Int32 }

func (f *alwaysTruncatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(iotest.ErrReader(syscall.ECONNRESET)),
		Request:    req,
	}, nil
}

// failingTransport fails every request before reaching the network.
type failingTransport struct{ calls atomic.Int32 }

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return nil, io.ErrUnexpectedEOF
}

func TestClient_Fetch_NetworkErrorIsRetried(t *testing.T) {
	transport := &failingTransport{}
	c := registry.New("http://localhost:4873",
		registry.WithHTTPClient(&http.Client{Transport: transport}),
		registry.WithRetries(2, time.Millisecond))

	_, err := c.Fetch(t.Context(), "http://localhost:4873/is-positive/-/is-positive-1.0.0.tgz")
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrRegistryUnavailable))
	assert.Equal(t, int32(3), transport.calls.Load())
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/is-positive/-/is-positive-1.0.0.tgz" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "tarball-bytes")
	}))
	t.Cleanup(srv.Close)

	c := registry.New(srv.URL)

	body, err := c.Fetch(t.Context(), srv.URL+"/is-positive/-/is-positive-1.0.0.tgz")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "tarball-bytes", string(data))

	_, err = c.Fetch(t.Context(), srv.URL+"/missing.tgz")
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrPackageNotFound))
}
