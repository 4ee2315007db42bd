package reconcile_test

import (
	"testing"

	"github.com/mjgerace/pnpm/internal/adapters/telemetry"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports/mocks"
	"github.com/mjgerace/pnpm/internal/engine/enginetest"
	"github.com/mjgerace/pnpm/internal/engine/graph"
	"github.com/mjgerace/pnpm/internal/engine/reconcile"
	"github.com/mjgerace/pnpm/internal/engine/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	reg    *enginetest.Registry
	logger *mocks.MockLogger
	rec    *reconcile.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := enginetest.NewRegistry(t)
	reg.PublishFixtures()

	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()

	store := enginetest.NewStore(t, reg)
	res := resolver.New(reg, store, telemetry.NewNoOpTracer(), enginetest.RegistryURL)
	builder := graph.New(res, store, logger, graph.Options{})

	return &fixture{
		reg:    reg,
		logger: logger,
		rec:    reconcile.New(builder, logger, enginetest.RegistryURL),
	}
}

func manifest(deps map[string]string) *domain.Manifest {
	return &domain.Manifest{Name: "project", Version: "0.0.0", Dependencies: deps}
}

func TestReconcile_FreshInstall(t *testing.T) {
	f := newFixture(t)

	res, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"pkg-with-1-dep": "^100.0.0"}), nil, reconcile.Options{})
	require.NoError(t, err)

	lf := res.Lockfile
	require.NotNil(t, lf)
	assert.Equal(t, domain.LockfileVersion, lf.Version)
	assert.Equal(t, enginetest.RegistryURL, lf.Registry)
	assert.Equal(t, map[string]string{"pkg-with-1-dep": "^100.0.0"}, lf.Specifiers)
	assert.Equal(t, "100.0.0", lf.Packages[domain.RootPath].Dependencies["pkg-with-1-dep"])
	assert.Contains(t, lf.Packages, "/pkg-with-1-dep/100.0.0")
	assert.Contains(t, lf.Packages, "/dep-of-pkg-with-1-dep/100.1.0")
	assert.Empty(t, lf.Packages["/pkg-with-1-dep/100.0.0"].Resolution.Tarball, "default tarball is derivable")
	assert.Equal(t, []string{"pkg-with-1-dep"}, res.Resolved)
	assert.Empty(t, res.Reused)
}

func TestReconcile_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.reg.Tag("dep-of-pkg-with-1-dep", "latest", "100.0.0")
	m := manifest(map[string]string{"pkg-with-1-dep": "^100.0.0"})

	first, err := f.rec.Reconcile(t.Context(), m, nil, reconcile.Options{})
	require.NoError(t, err)
	require.Contains(t, first.Lockfile.Packages, "/dep-of-pkg-with-1-dep/100.0.0")

	f.reg.Tag("dep-of-pkg-with-1-dep", "latest", "100.1.0")

	second, err := f.rec.Reconcile(t.Context(), m, first.Lockfile, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Lockfile, second.Lockfile)
	assert.Equal(t, []string{"pkg-with-1-dep"}, second.Reused)
	assert.Empty(t, second.Resolved)
}

func TestReconcile_ChangedSpecifierIsResolvedAgain(t *testing.T) {
	f := newFixture(t)

	first, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-negative": "2.0.0"}), nil, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", first.Lockfile.Packages[domain.RootPath].Dependencies["is-negative"])

	second, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-negative": "^2.1.0"}), first.Lockfile, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", second.Lockfile.Packages[domain.RootPath].Dependencies["is-negative"])
	assert.Equal(t, "^2.1.0", second.Lockfile.Specifiers["is-negative"])
	assert.NotContains(t, second.Lockfile.Packages, "/is-negative/2.0.0", "orphans are dropped")
}

func TestReconcile_RemovedDependencyIsPruned(t *testing.T) {
	f := newFixture(t)

	first, err := f.rec.Reconcile(t.Context(),
		manifest(map[string]string{"pkg-with-1-dep": "^100.0.0", "is-positive": "^1.0.0"}), nil, reconcile.Options{})
	require.NoError(t, err)

	second, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-positive": "^1.0.0"}), first.Lockfile, reconcile.Options{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"is-positive": "^1.0.0"}, second.Lockfile.Specifiers)
	assert.Len(t, second.Lockfile.Packages, 2)
	assert.Contains(t, second.Lockfile.Packages, "/is-positive/1.0.0")
}

func TestReconcile_ZeroDependenciesRemovesLockfile(t *testing.T) {
	f := newFixture(t)

	first, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-positive": "^1.0.0"}), nil, reconcile.Options{})
	require.NoError(t, err)

	res, err := f.rec.Reconcile(t.Context(), manifest(nil), first.Lockfile, reconcile.Options{})
	require.NoError(t, err)
	assert.Nil(t, res.Lockfile)

	res, err = f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-positive": "^1.0.0"}), nil, reconcile.Options{})
	require.NoError(t, err)
	assert.NotNil(t, res.Lockfile, "adding a dependency brings the lockfile back")
}

func TestReconcile_RootWithoutSpecifierIsReused(t *testing.T) {
	f := newFixture(t)
	meta, err := f.reg.Metadata(t.Context(), "is-negative")
	require.NoError(t, err)

	lf := domain.NewLockfile(enginetest.RegistryURL)
	lf.Packages[domain.RootPath].Dependencies["is-negative"] = "2.0.0"
	lf.Packages["/is-negative/2.0.0"] = &domain.Snapshot{
		Resolution: domain.Resolution{Shasum: meta.Versions["2.0.0"].Dist.Shasum},
	}

	res, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-negative": "^2.0.0"}), lf, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"is-negative"}, res.Reused)
	assert.Same(t, lf.Packages["/is-negative/2.0.0"], res.Lockfile.Packages["/is-negative/2.0.0"])
	assert.Equal(t, "^2.0.0", res.Lockfile.Specifiers["is-negative"])
}

func TestReconcile_InvalidLockfileIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.logger.EXPECT().Warn("ignoring invalid lockfile", gomock.Any()).Times(1)

	lf := domain.NewLockfile(enginetest.RegistryURL)
	lf.Version = 1

	res, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-positive": "^1.0.0"}), lf, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.LockfileVersion, res.Lockfile.Version)
	assert.Equal(t, []string{"is-positive"}, res.Resolved)
}

func TestReconcile_RegistryMismatch(t *testing.T) {
	f := newFixture(t)
	f.logger.EXPECT().Warn(gomock.Any(), gomock.Any()).Times(1)

	first, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-positive": "^1.0.0"}), nil, reconcile.Options{})
	require.NoError(t, err)
	first.Lockfile.Registry = "https://registry.npmjs.org/"

	res, err := f.rec.Reconcile(t.Context(), manifest(map[string]string{"is-positive": "^1.0.0"}), first.Lockfile, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, enginetest.RegistryURL, res.Lockfile.Registry)
	assert.Equal(t, []string{"is-positive"}, res.Resolved)
}

func TestReconcile_Frozen(t *testing.T) {
	f := newFixture(t)
	m := manifest(map[string]string{"pkg-with-1-dep": "^100.0.0"})

	_, err := f.rec.Reconcile(t.Context(), m, nil, reconcile.Options{Frozen: true})
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrLockfileOutdated))

	first, err := f.rec.Reconcile(t.Context(), m, nil, reconcile.Options{})
	require.NoError(t, err)

	res, err := f.rec.Reconcile(t.Context(), m, first.Lockfile, reconcile.Options{Frozen: true})
	require.NoError(t, err)
	assert.Equal(t, first.Lockfile, res.Lockfile)

	changed := manifest(map[string]string{"pkg-with-1-dep": "^100.0.0", "is-positive": "^1.0.0"})
	_, err = f.rec.Reconcile(t.Context(), changed, first.Lockfile, reconcile.Options{Frozen: true})
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrLockfileOutdated))
}

func TestReconcile_DevDependenciesAreRecorded(t *testing.T) {
	f := newFixture(t)
	m := &domain.Manifest{
		Dependencies:    map[string]string{"is-positive": "^1.0.0"},
		DevDependencies: map[string]string{"is-negative": "^2.0.0"},
	}

	res, err := f.rec.Reconcile(t.Context(), m, nil, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"is-positive": "^1.0.0", "is-negative": "^2.0.0"}, res.Lockfile.Specifiers)
	assert.Contains(t, res.Lockfile.Packages, "/is-negative/2.1.0")
}
