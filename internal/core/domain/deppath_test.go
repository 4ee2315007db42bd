package domain_test

import (
	"testing"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepPath(t *testing.T) {
	assert.Equal(t, "/pkg-with-1-dep/100.0.0", domain.DepPath("pkg-with-1-dep", "100.0.0"))
	assert.Equal(t, "/@types/semver/5.3.31", domain.DepPath("@types/semver", "5.3.31"))
	assert.Equal(t, "/highmaps-release/5.0.11", domain.DepPath("highmaps-release", "v5.0.11"))
}

func TestParseDepPath(t *testing.T) {
	name, version, err := domain.ParseDepPath("/@types/semver/5.3.31")
	require.NoError(t, err)
	assert.Equal(t, "@types/semver", name)
	assert.Equal(t, "5.3.31", version)

	name, version, err = domain.ParseDepPath("/is-negative/2.1.0")
	require.NoError(t, err)
	assert.Equal(t, "is-negative", name)
	assert.Equal(t, "2.1.0", version)

	for _, bad := range []string{"/", "is-negative/2.1.0", "/is-negative", "/a/b/c", "/is-negative/latest"} {
		_, _, err := domain.ParseDepPath(bad)
		require.Error(t, err, bad)
		assert.True(t, domain.IsError(err, domain.ErrInvalidDepPath), bad)
	}
}

func TestRefAndPathRoundTrip(t *testing.T) {
	assert.Equal(t, "/dep-of-pkg-with-1-dep/100.0.0", domain.RefToPath("dep-of-pkg-with-1-dep", "100.0.0"))
	assert.Equal(t, "100.0.0", domain.PathToRef("dep-of-pkg-with-1-dep", "/dep-of-pkg-with-1-dep/100.0.0"))

	tarballPath := "codeload.github.com/kevva/is-negative/tar.gz/master"
	assert.Equal(t, tarballPath, domain.RefToPath("is-negative", tarballPath))
	assert.Equal(t, tarballPath, domain.PathToRef("is-negative", tarballPath))
}

func TestTarballDepPath(t *testing.T) {
	assert.Equal(t,
		"codeload.github.com/kevva/is-negative/tar.gz/master",
		domain.TarballDepPath("https://codeload.github.com/kevva/is-negative/tar.gz/master"))
	assert.Equal(t,
		"localhost+4873/is-negative/-/is-negative-2.1.0",
		domain.TarballDepPath("http://localhost:4873/is-negative/-/is-negative-2.1.0.tgz"))
}

func TestRegistryHelpers(t *testing.T) {
	assert.Equal(t, "localhost+4873", domain.RegistryHost("http://localhost:4873/"))
	assert.Equal(t, "registry.npmjs.org", domain.RegistryHost(domain.DefaultRegistry))
	assert.Equal(t, "http://localhost:4873/", domain.NormalizeRegistry("http://localhost:4873"))
	assert.Equal(t, domain.DefaultRegistry, domain.NormalizeRegistry(""))
}

func TestVirtualDir(t *testing.T) {
	assert.Equal(t,
		".localhost+4873/react-datetime/1.3.0",
		domain.VirtualDir("localhost+4873", "/react-datetime/1.3.0"))
	assert.Equal(t,
		".localhost+4873/@types/semver/5.3.31",
		domain.VirtualDir("localhost+4873", "/@types/semver/5.3.31"))
	assert.Equal(t,
		".codeload.github.com/kevva/is-negative/tar.gz/master",
		domain.VirtualDir("localhost+4873", "codeload.github.com/kevva/is-negative/tar.gz/master"))
}

func TestDefaultTarballURL(t *testing.T) {
	assert.Equal(t,
		"http://localhost:4873/is-negative/-/is-negative-2.1.0.tgz",
		domain.DefaultTarballURL("http://localhost:4873", "is-negative", "2.1.0"))
	assert.Equal(t,
		"https://registry.npmjs.org/@types/semver/-/semver-5.3.31.tgz",
		domain.DefaultTarballURL(domain.DefaultRegistry, "@types/semver", "5.3.31"))
}
