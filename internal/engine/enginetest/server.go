package enginetest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// Serve starts an HTTP server speaking the registry protocol and returns the
// registry behind it. The server is closed when the test ends.
func Serve(t testing.TB) *Registry {
	t.Helper()

	var reg *Registry
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		reg.ServeHTTP(w, req)
	}))
	t.Cleanup(srv.Close)

	reg = NewRegistryAt(t, srv.URL)
	return reg
}

type versionDoc struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Dist         map[string]string `json:"dist"`
}

// ServeHTTP answers tarball downloads and package documents.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tarballURL := strings.TrimSuffix(r.url, "/") + req.URL.Path
	if data, ok := r.tarballs[tarballURL]; ok {
		r.fetches[tarballURL]++
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
		return
	}

	name, err := url.PathUnescape(strings.TrimPrefix(req.URL.EscapedPath(), "/"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.metadata[name]++
	doc, ok := r.docs[name]
	if !ok {
		http.NotFound(w, req)
		return
	}

	versions := make(map[string]versionDoc, len(doc.Versions))
	for v, m := range doc.Versions {
		versions[v] = versionDoc{
			Name:         m.Name,
			Version:      m.Version,
			Dependencies: m.Dependencies,
			Dist: map[string]string{
				"integrity": m.Dist.Integrity,
				"shasum":    m.Dist.Shasum,
				"tarball":   m.Dist.Tarball,
			},
		}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{
		"name":      doc.Name,
		"dist-tags": doc.DistTags,
		"versions":  versions,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}
