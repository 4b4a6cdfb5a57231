// Package engine is the top-level orchestrator: it ties the registry,
// catalog, solver, store, downloader, extractor, normalizer, environment
// composer, system-dependency bridge, and progress reporter together into
// the two operations the rest of vx calls into (spec §4.6 resolve-all,
// §4.7 install-executor).
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vxrun/vx/internal/catalog"
	"github.com/vxrun/vx/internal/config"
	vxerrors "github.com/vxrun/vx/internal/errors"
	"github.com/vxrun/vx/internal/envcompose"
	"github.com/vxrun/vx/internal/graph"
	"github.com/vxrun/vx/internal/installer/download"
	"github.com/vxrun/vx/internal/path"
	"github.com/vxrun/vx/internal/platform"
	"github.com/vxrun/vx/internal/progress"
	"github.com/vxrun/vx/internal/registry"
	"github.com/vxrun/vx/internal/solver"
	"github.com/vxrun/vx/internal/store"
	"golang.org/x/sync/semaphore"
)

// Engine owns every long-lived collaborator a resolve-then-install run
// needs. One Engine is built per process invocation from config.Settings.
type Engine struct {
	registry   *registry.Registry
	store      *store.Store
	layout     path.Layout
	fetcher    *catalog.Fetcher
	downloader *download.Downloader
	reporter   progress.Reporter
	platform   platform.Platform

	concurrency int
	policy      solver.Policy
}

// Option customizes a new Engine.
type Option func(*Engine)

// WithReporter overrides the default NullReporter.
func WithReporter(r progress.Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithSolverPolicy overrides the default (stable-only, no prereleases) solve policy.
func WithSolverPolicy(p solver.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// New builds an Engine from a built registry and loaded settings.
func New(reg *registry.Registry, settings config.Settings, opts ...Option) (*Engine, error) {
	p, err := platform.Current()
	if err != nil {
		return nil, fmt.Errorf("engine: detect platform: %w", err)
	}

	layout := path.New(settings)
	if err := layout.EnsureHome(); err != nil {
		return nil, fmt.Errorf("engine: ensure home: %w", err)
	}

	st, err := store.New(layout.StoreRoot())
	if err != nil {
		return nil, fmt.Errorf("engine: open store: %w", err)
	}

	e := &Engine{
		registry:    reg,
		store:       st,
		layout:      layout,
		fetcher:     catalog.NewFetcher(settings.CacheDir),
		downloader:  download.New(),
		reporter:    progress.NullReporter{},
		platform:    p,
		concurrency: settings.MaxConcurrency,
		policy:      solver.Policy{PreferLTS: true},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Resolve runs the dependency resolver (spec §4.6) over requested tools,
// partitioning them into install order, already-available, and missing,
// and surfacing cycles/version conflicts without aborting.
func (e *Engine) Resolve(requests []graph.Request, policy graph.Policy) (graph.Result, error) {
	avail := storeAvailability{store: e.store}
	return graph.Resolve(e.registry, requests, avail, policy)
}

// Result is one runtime's install outcome.
type Result struct {
	Runtime     string
	Version     string
	InstallPath string
	Skipped     bool // already installed, or delegated to a managed_by parent
	Reason      string
}

// InstallAll resolves requests and installs every missing tool in
// dependency-respecting layers, running independent runtimes within a
// layer concurrently up to e.concurrency (spec §5 "bounded concurrency for
// independent installs").
func (e *Engine) InstallAll(ctx context.Context, requests []graph.Request) ([]Result, error) {
	resolved, resolveErr := e.Resolve(requests, graph.Policy{})
	if resolveErr != nil && len(resolved.InstallOrder) == 0 {
		return nil, resolveErr
	}

	layers := e.layerize(resolved.InstallOrder)

	results := make(map[string]Result, len(resolved.InstallOrder))
	var resultsMu resultsGuard

	for i, layer := range layers {
		slog.Debug("engine: installing layer", "layer", i, "runtimes", layer)

		sem := semaphore.NewWeighted(int64(max(1, e.concurrency)))
		var wg sync.WaitGroup
		var errsMu sync.Mutex
		var errs []error

		for _, name := range layer {
			name := name
			constraint := constraintFor(name, requests)
			if err := sem.Acquire(ctx, 1); err != nil {
				errsMu.Lock()
				errs = append(errs, err)
				errsMu.Unlock()
				break
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				res, err := e.installOne(ctx, name, constraint)
				if err != nil {
					errsMu.Lock()
					errs = append(errs, fmt.Errorf("engine: install %s: %w", name, err))
					errsMu.Unlock()
					return
				}
				resultsMu.set(results, name, res)
			}()
		}
		wg.Wait()

		if len(errs) > 0 {
			e.reporter.Done()
			return nil, errors.Join(errs...)
		}
	}

	e.reporter.Done()

	out := make([]Result, 0, len(resolved.InstallOrder))
	for _, name := range resolved.InstallOrder {
		if r, ok := results[name]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// layerize groups a dependency-first InstallOrder into layers of runtimes
// with no required edge between them, so independent installs within a
// layer can run concurrently (spec §5). Layer assignment is the runtime's
// longest required-dependency chain depth, computed directly from the
// registry rather than from graph.Result (which only carries the flat
// order).
func (e *Engine) layerize(order []string) [][]string {
	depth := make(map[string]int, len(order))
	var depthOf func(name string) int
	depthOf = func(name string) int {
		if d, ok := depth[name]; ok {
			return d
		}
		depth[name] = 0 // break cycles defensively; graph.Resolve already rejects real cycles
		best := 0
		if spec, ok := e.registry.Get(name); ok {
			for _, dep := range spec.Dependencies {
				if !dep.Required {
					continue
				}
				target := dep.Name
				if dep.ProvidedBy != "" {
					target = dep.ProvidedBy
				}
				canonical, ok := e.registry.ResolveName(target)
				if !ok {
					continue
				}
				if d := depthOf(canonical) + 1; d > best {
					best = d
				}
			}
		}
		depth[name] = best
		return best
	}

	maxDepth := 0
	for _, name := range order {
		if d := depthOf(name); d > maxDepth {
			maxDepth = d
		}
	}

	layers := make([][]string, maxDepth+1)
	for _, name := range order {
		d := depth[name]
		layers[d] = append(layers[d], name)
	}

	var out [][]string
	for _, layer := range layers {
		if len(layer) > 0 {
			sort.Strings(layer)
			out = append(out, layer)
		}
	}
	return out
}

func constraintFor(name string, requests []graph.Request) string {
	for _, r := range requests {
		if r.Name == name {
			return r.Constraint
		}
	}
	return "*"
}

// PrepareExecution composes the environment for running primary@version
// plus its installed dependency closure, for the "vx run"/"vx exec" entry
// point (spec §4.9).
func (e *Engine) PrepareExecution(primary, version string, withOverlay []envcompose.InstalledRuntime, baseEnv map[string]string) (envcompose.Env, error) {
	spec, ok := e.registry.Get(primary)
	if !ok {
		return nil, vxerrors.NewRuntimeNotFound(primary)
	}

	primaryRT, err := e.installedRuntime(spec.Name, version)
	if err != nil {
		return nil, err
	}

	var deps []envcompose.InstalledRuntime
	for _, dep := range spec.Dependencies {
		if !dep.Required {
			continue
		}
		target := dep.Name
		if dep.ProvidedBy != "" {
			target = dep.ProvidedBy
		}
		canonical, ok := e.registry.ResolveName(target)
		if !ok {
			continue
		}
		versions, err := e.store.InstalledVersions(canonical)
		if err != nil || len(versions) == 0 {
			continue
		}
		rt, err := e.installedRuntime(canonical, versions[len(versions)-1])
		if err != nil {
			continue
		}
		deps = append(deps, rt)
	}

	return envcompose.Compose(primaryRT, deps, withOverlay, baseEnv, e.platform, func(name string) string {
		if s, ok := e.registry.Get(name); ok {
			return s.Executable
		}
		return name
	})
}

func (e *Engine) installedRuntime(name, version string) (envcompose.InstalledRuntime, error) {
	spec, ok := e.registry.Get(name)
	if !ok {
		return envcompose.InstalledRuntime{}, fmt.Errorf("engine: %s not in registry", name)
	}
	versions, err := e.store.InstalledVersions(name)
	if err != nil {
		return envcompose.InstalledRuntime{}, err
	}

	// Manifests only carry unconditional env_vars today (spec §3); the
	// ConditionalVars slot exists in envcompose for a future per-version
	// env_vars rule the manifest format does not expose yet.
	return envcompose.InstalledRuntime{
		Name:          name,
		Version:       version,
		InstalledRoot: e.store.InstallDir(name, version, e.platform),
		AllVersions:   versions,
		EnvVars:       spec.EnvVars,
	}, nil
}

// Platform returns the detected platform, for callers (e.g. cmd/vx doctor)
// that need to render it without re-deriving it.
func (e *Engine) Platform() platform.Platform { return e.platform }

// Store exposes the underlying store for callers that need direct
// read-only queries (e.g. `vx list`).
func (e *Engine) Store() *store.Store { return e.store }

// Registry exposes the underlying registry for callers enumerating
// runtimes (e.g. `vx list --all`).
func (e *Engine) Registry() *registry.Registry { return e.registry }
