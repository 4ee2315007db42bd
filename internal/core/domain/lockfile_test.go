package domain_test

import (
	"testing"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
)

func sampleLockfile() *domain.Lockfile {
	lf := domain.NewLockfile("http://localhost:4873")
	lf.Specifiers["pkg-with-1-dep"] = "^100.0.0"
	lf.Packages[domain.RootPath].Dependencies["pkg-with-1-dep"] = "100.0.0"
	lf.Packages["/pkg-with-1-dep/100.0.0"] = &domain.Snapshot{
		Dependencies: map[string]string{"dep-of-pkg-with-1-dep": "100.0.0"},
		Resolution:   domain.Resolution{Integrity: "sha512-aaa"},
	}
	lf.Packages["/dep-of-pkg-with-1-dep/100.0.0"] = &domain.Snapshot{
		Resolution: domain.Resolution{Shasum: "b1dccbab9ab987b87ad4778207e1cb7fe948fb3c"},
	}
	return lf
}

func TestLockfile_Validate(t *testing.T) {
	require.NoError(t, sampleLockfile().Validate())
}

func TestLockfile_Validate_UnsupportedVersion(t *testing.T) {
	lf := sampleLockfile()
	lf.Version = 3

	err := lf.Validate()
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrLockfileInvalid))

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, 3, zErr.Metadata()["version"])
}

func TestLockfile_Validate_MalformedPath(t *testing.T) {
	lf := sampleLockfile()
	lf.Packages["/is-negative"] = &domain.Snapshot{}

	err := lf.Validate()
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrLockfileInvalid))
}

func TestLockfile_Validate_NonRegistryWithoutTarball(t *testing.T) {
	lf := sampleLockfile()
	lf.Packages["codeload.github.com/kevva/is-negative/tar.gz/master"] = &domain.Snapshot{
		Resolution: domain.Resolution{Integrity: "sha512-x"},
	}

	err := lf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrLockfileInvalid.Error())
}

func TestLockfile_Reachable(t *testing.T) {
	lf := sampleLockfile()
	lf.Packages["/orphan/1.0.0"] = &domain.Snapshot{}

	seen := lf.Reachable("/pkg-with-1-dep/100.0.0")
	assert.True(t, seen["/pkg-with-1-dep/100.0.0"])
	assert.True(t, seen["/dep-of-pkg-with-1-dep/100.0.0"])
	assert.False(t, seen["/orphan/1.0.0"])
}

func TestLockfile_RootPaths(t *testing.T) {
	paths := sampleLockfile().RootPaths()
	assert.Equal(t, map[string]string{"pkg-with-1-dep": "/pkg-with-1-dep/100.0.0"}, paths)
}
