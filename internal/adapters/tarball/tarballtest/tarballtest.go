// Package tarballtest builds package tarballs for tests.
package tarballtest

import (
	"archive/tar"
	"bytes"
	"crypto/sha1" //nolint:gosec // npm shasums are sha1
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"maps"
	"slices"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// Entry is one file in a test tarball.
type Entry struct {
	Name    string
	Content string
	Mode    int64
}

// Build returns a gzip compressed tar with every file placed below prefix.
// Files are written in name order so equal inputs give equal bytes.
func Build(t testing.TB, prefix string, files map[string]string) []byte {
	t.Helper()

	entries := make([]Entry, 0, len(files))
	for _, name := range slices.Sorted(maps.Keys(files)) {
		entries = append(entries, Entry{Name: prefix + "/" + name, Content: files[name], Mode: 0o644})
	}
	return BuildEntries(t, entries...)
}

// BuildEntries returns a gzip compressed tar holding entries verbatim.
func BuildEntries(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.Name,
			Mode:     e.Mode,
			Size:     int64(len(e.Content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.Name, err)
		}
		if _, err := tw.Write([]byte(e.Content)); err != nil {
			t.Fatalf("write %s: %v", e.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// Integrity returns the sha512 SRI string of data.
func Integrity(data []byte) string {
	sum := sha512.Sum512(data)
	return "sha512-" + base64.StdEncoding.EncodeToString(sum[:])
}

// Shasum returns the hex sha1 of data.
func Shasum(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // npm shasums are sha1
	return hex.EncodeToString(sum[:])
}
