// Package app implements the application layer for pnpm.
package app

import (
	"context"
	"path/filepath"

	"github.com/mjgerace/pnpm/internal/adapters/cas"
	"github.com/mjgerace/pnpm/internal/adapters/registry"
	"github.com/mjgerace/pnpm/internal/adapters/telemetry"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/mjgerace/pnpm/internal/engine/graph"
	"github.com/mjgerace/pnpm/internal/engine/installer"
	"github.com/mjgerace/pnpm/internal/engine/reconcile"
	"github.com/mjgerace/pnpm/internal/engine/resolver"
	"github.com/spf13/afero"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/zerr"
)

// logConfigurer is implemented by loggers whose format can change at runtime.
type logConfigurer interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	manifests    ports.ManifestRepository
	lockfiles    ports.LockfileRepository
	modules      ports.ModulesRepository
	linker       ports.Linker
	extractor    ports.Extractor
	logger       ports.Logger
	registryOpts []registry.Option
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	manifests ports.ManifestRepository,
	lockfiles ports.LockfileRepository,
	modules ports.ModulesRepository,
	linker ports.Linker,
	extractor ports.Extractor,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		manifests:    manifests,
		lockfiles:    lockfiles,
		modules:      modules,
		linker:       linker,
		extractor:    extractor,
		logger:       log,
	}
}

// WithRegistryOptions adds options applied to every registry client the App creates.
// This is primarily used for testing to swap the HTTP transport.
func (a *App) WithRegistryOptions(opts ...registry.Option) *App {
	a.registryOpts = append(a.registryOpts, opts...)
	return a
}

// ConfigureLogging switches the logger to JSON records and/or debug level
// when it supports it.
func (a *App) ConfigureLogging(json, verbose bool) {
	if l, ok := a.logger.(logConfigurer); ok {
		l.SetJSON(json)
		l.SetVerbose(verbose)
	}
}

// InstallOptions configuration for the Install method.
type InstallOptions struct {
	Dir        string
	Production bool
	Frozen     bool
}

// AddOptions configuration for the Add method.
type AddOptions struct {
	Dir        string
	Dev        bool
	Exact      bool
	Production bool
}

// session holds the components of one command run. They depend on the
// settings of the project, so they are created per run.
type session struct {
	settings   *domain.Settings
	provider   *sdktrace.TracerProvider
	summary    *telemetry.SummaryProcessor
	resolver   *resolver.Resolver
	reconciler *reconcile.Reconciler
	installer  *installer.Installer
}

func (a *App) newSession(dir string) (*session, error) {
	settings, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load settings")
	}
	if settings.JSONLogs {
		if l, ok := a.logger.(logConfigurer); ok {
			l.SetJSON(true)
		}
	}

	summary := telemetry.NewSummaryProcessor()
	provider := telemetry.NewProvider(summary)
	tracer := telemetry.NewOTelTracer(provider, "pnpm")

	opts := append([]registry.Option{
		registry.WithRetries(settings.FetchRetries, settings.FetchRetryDelay),
		registry.WithTracer(tracer),
	}, a.registryOpts...)
	client := registry.New(settings.Registry, opts...)

	store, err := cas.NewStore(settings.StoreDir, afero.NewOsFs(), client, a.extractor, tracer)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("using settings",
		"registry", settings.Registry,
		"store", store.Root(),
		"network_concurrency", settings.NetworkConcurrency)

	res := resolver.New(client, store, tracer, settings.Registry)
	builder := graph.New(res, store, a.logger, graph.Options{
		Concurrency: settings.NetworkConcurrency,
		MaxDepth:    settings.MaxDepth,
	})

	return &session{
		settings:   settings,
		provider:   provider,
		summary:    summary,
		resolver:   res,
		reconciler: reconcile.New(builder, a.logger, settings.Registry),
		installer: installer.New(
			store, a.linker, a.lockfiles, a.modules, a.logger, settings.NetworkConcurrency,
		),
	}, nil
}

func (s *session) close(ctx context.Context) {
	_ = s.provider.Shutdown(ctx)
}

// Install makes node_modules and the lockfile of the project match its package.json.
func (a *App) Install(ctx context.Context, opts InstallOptions) error {
	dir, err := absDir(opts.Dir)
	if err != nil {
		return err
	}
	opts.Dir = dir

	m, err := a.manifests.Load(dir)
	if err != nil {
		return err
	}

	s, err := a.newSession(dir)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	return a.install(ctx, s, m, opts)
}

func (a *App) install(ctx context.Context, s *session, m *domain.Manifest, opts InstallOptions) error {
	existing, err := a.lockfiles.Load(opts.Dir)
	if err != nil {
		if !domain.IsError(err, domain.ErrLockfileInvalid) {
			return err
		}
		a.logger.Warn("ignoring unreadable lockfile", "error", err.Error())
		existing = nil
	}

	res, err := s.reconciler.Reconcile(ctx, m, existing, reconcile.Options{Frozen: opts.Frozen})
	if err != nil {
		return zerr.Wrap(err, "failed to resolve dependencies")
	}

	report, err := s.installer.Install(ctx, res.Lockfile, m, installer.Options{
		Dir:        opts.Dir,
		Production: opts.Production,
	})
	if err != nil {
		err = zerr.Wrap(err, "failed to install dependencies")
		if failed := s.summary.Failed("fetch"); failed > 0 {
			err = zerr.With(err, "failed_downloads", failed)
		}
		return err
	}

	if report.UpToDate {
		a.logger.Info("already up to date")
		return nil
	}
	a.logger.Info("dependencies installed",
		"reused", len(res.Reused),
		"resolved", len(res.Resolved),
		"placed", report.Placed,
		"removed", report.Removed,
		"downloaded", s.summary.Count("fetch"))
	return nil
}

// Add resolves each package argument, records it in package.json and installs.
func (a *App) Add(ctx context.Context, args []string, opts AddOptions) error {
	if len(args) == 0 {
		return domain.ErrNoPackagesSpecified
	}

	dir, err := absDir(opts.Dir)
	if err != nil {
		return err
	}

	m, err := a.manifests.Load(dir)
	switch {
	case domain.IsError(err, domain.ErrManifestNotFound):
		m = &domain.Manifest{}
	case err != nil:
		return err
	}

	s, err := a.newSession(dir)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	for _, arg := range args {
		name, raw := domain.ParsePackageArg(arg)
		spec, err := domain.ParseSpecifier(name, raw)
		if err != nil {
			return err
		}

		pkg, err := s.resolver.Resolve(ctx, spec)
		if err != nil {
			return zerr.With(err, "argument", arg)
		}

		saved := savedSpecifier(spec, pkg.Version, opts.Exact)
		m.SetDependency(pkg.Name, saved, opts.Dev)
		a.logger.Debug("adding dependency", "package", pkg.Name, "specifier", saved)
	}

	if err := a.manifests.Save(dir, m); err != nil {
		return err
	}
	return a.install(ctx, s, m, InstallOptions{Dir: dir, Production: opts.Production})
}

// savedSpecifier is what package.json records for a requested spec.
// Bare names and tags are pinned to a caret range of the resolved version.
func savedSpecifier(spec domain.Specifier, version string, exact bool) string {
	if !spec.IsRegistry() {
		return spec.Raw
	}
	if exact {
		return version
	}
	if spec.Raw == "" || spec.Kind == domain.SpecTag {
		return "^" + version
	}
	return spec.Raw
}

func absDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve project directory"), "dir", dir)
	}
	return abs, nil
}
