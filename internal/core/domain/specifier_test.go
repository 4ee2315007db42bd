package domain_test

import (
	"testing"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecifier(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind domain.SpecifierKind
		url  string
	}{
		{"is-positive", "^1.0.0", domain.SpecRange, ""},
		{"is-positive", "2.0.0", domain.SpecRange, ""},
		{"is-positive", "", domain.SpecRange, ""},
		{"is-positive", ">=1.0.0 <2.0.0 || 3.x", domain.SpecRange, ""},
		{"is-positive", "latest", domain.SpecTag, ""},
		{"is-positive", "next", domain.SpecTag, ""},
		{
			"is-negative", "kevva/is-negative", domain.SpecGitHub,
			"https://codeload.github.com/kevva/is-negative/tar.gz/master",
		},
		{
			"is-negative", "github:kevva/is-negative#1d7e288", domain.SpecGitHub,
			"https://codeload.github.com/kevva/is-negative/tar.gz/1d7e288",
		},
		{
			"is-array", "https://example.com/is-array-1.0.0.tgz", domain.SpecTarball,
			"https://example.com/is-array-1.0.0.tgz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			spec, err := domain.ParseSpecifier(tt.name, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, spec.Kind)
			assert.Equal(t, tt.url, spec.URL)
			assert.Equal(t, tt.name, spec.Name)
		})
	}
}

func TestParseSpecifier_Invalid(t *testing.T) {
	_, err := domain.ParseSpecifier("pkg", "not a tag!")
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrInvalidSpecifier))
}

func TestSpecifier_IsRegistry(t *testing.T) {
	rng, _ := domain.ParseSpecifier("a", "^1.0.0")
	tag, _ := domain.ParseSpecifier("a", "latest")
	gh, _ := domain.ParseSpecifier("a", "owner/a")

	assert.True(t, rng.IsRegistry())
	assert.True(t, tag.IsRegistry())
	assert.False(t, gh.IsRegistry())
}

func TestParsePackageArg(t *testing.T) {
	tests := []struct {
		arg      string
		wantName string
		wantRaw  string
	}{
		{"pkg-with-1-dep", "pkg-with-1-dep", ""},
		{"is-negative@2.0.0", "is-negative", "2.0.0"},
		{"@rstacruz/tap-spec@4.1.1", "@rstacruz/tap-spec", "4.1.1"},
		{"@types/semver", "@types/semver", ""},
		{"kevva/is-negative", "is-negative", "kevva/is-negative"},
		{"https://example.com/a.tgz", "", "https://example.com/a.tgz"},
	}

	for _, tt := range tests {
		name, raw := domain.ParsePackageArg(tt.arg)
		assert.Equal(t, tt.wantName, name, tt.arg)
		assert.Equal(t, tt.wantRaw, raw, tt.arg)
	}
}
