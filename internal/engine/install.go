package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vxrun/vx/internal/catalog"
	vxerrors "github.com/vxrun/vx/internal/errors"
	"github.com/vxrun/vx/internal/installer/extract"
	"github.com/vxrun/vx/internal/installer/normalize"
	"github.com/vxrun/vx/internal/progress"
	"github.com/vxrun/vx/internal/registry"
	"github.com/vxrun/vx/internal/solver"
	"github.com/vxrun/vx/internal/sysdeps"
	"github.com/vxrun/vx/internal/verify"
)

// maxFallbackAttempts bounds spec §4.7's post-install-verification-failure
// retry: up to this many older stable versions are tried, each skipping the
// version that just failed, before the install is reported as failed.
const maxFallbackAttempts = 3

// installOne runs the full per-runtime install pipeline (spec §4.7):
// platform check, managed_by delegation, version resolution, then (in
// installVersion) the already-installed short-circuit, system
// prerequisites, download+verify, extract, normalize, and post-install
// verification; the runtime's store lock is held from download through
// verification. A post-install verification failure loops back to the
// solved version's catalog (the "Pending (with previous-stable version)"
// edge of the install state machine) and retries at up to
// maxFallbackAttempts progressively older stable versions before giving
// up. Each retry reinstalls only this runtime; its dependencies are not
// reinstalled for the older version.
func (e *Engine) installOne(ctx context.Context, name, constraint string) (Result, error) {
	spec, ok := e.registry.Get(name)
	if !ok {
		return Result{}, vxerrors.NewRuntimeNotFound(name)
	}

	if err := e.checkPlatform(spec.PlatformConstraint); err != nil {
		return Result{}, err
	}

	if def := spec.Def(); def != nil && def.ManagedBy != "" {
		return Result{Runtime: name, Skipped: true, Reason: "managed_by " + def.ManagedBy}, nil
	}

	versions, err := e.fetcher.Fetch(ctx, name, spec.Catalog, e.policy.IncludePrerelease)
	if err != nil {
		return Result{}, err
	}

	resolved, err := solver.Solve(name, solver.Parse(constraint), versions, spec.Catalog.URL, e.policy)
	if err != nil {
		return Result{}, err
	}

	result, err := e.installVersion(ctx, spec, resolved, versions)
	if err == nil {
		return result, nil
	}
	verifyErr, isVerifyFailure := err.(*vxerrors.Error)
	if !isVerifyFailure || verifyErr.Code != vxerrors.CodePostInstallVerifyFail {
		return Result{}, err
	}

	tried := map[string]bool{resolved.Version: true}
	for attempt := 1; attempt <= maxFallbackAttempts; attempt++ {
		older, ok := solver.PreviousStable(versions, tried)
		if !ok {
			break
		}
		tried[older.Version] = true

		e.reporter.Report(progress.Event{
			Runtime: name, Version: older.Version, Stage: progress.StagePending,
			Message: fmt.Sprintf("retrying at older stable version after verification failure (attempt %d/%d)", attempt, maxFallbackAttempts),
		})

		fallbackResolved := solver.ResolvedVersion{Version: older.Version, ResolvedFrom: resolved.ResolvedFrom, Source: resolved.Source, Metadata: older.Metadata}
		result, fallbackErr := e.installVersion(ctx, spec, fallbackResolved, versions)
		if fallbackErr == nil {
			return result, nil
		}
		err = fallbackErr
		verifyErr, isVerifyFailure = fallbackErr.(*vxerrors.Error)
		if !isVerifyFailure || verifyErr.Code != vxerrors.CodePostInstallVerifyFail {
			return Result{}, fallbackErr
		}
	}
	return Result{}, err
}

// installVersion runs one attempt of the already-installed check, system
// prerequisites, locked download+place, and post-install verification for a
// single resolved version. installOne calls it once for the solved version
// and again, per attempt, for each older-stable fallback.
func (e *Engine) installVersion(ctx context.Context, spec *registry.RuntimeSpec, resolved solver.ResolvedVersion, versions []catalog.VersionInfo) (Result, error) {
	name := spec.Name
	version := resolved.Version

	e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StagePending})

	if e.store.IsInstalled(name, version, e.platform) {
		e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StageInstalled, Message: "already installed"})
		return Result{Runtime: name, Version: version, InstallPath: e.store.InstallDir(name, version, e.platform), Skipped: true, Reason: "already installed"}, nil
	}

	if !spec.AutoInstallable {
		return Result{}, vxerrors.NewAutoInstallDisabled(name, version)
	}

	if len(spec.SystemDeps.PreDepends) > 0 {
		plan, err := sysdeps.BuildPlan(spec.SystemDeps.PreDepends, e.platform)
		if err != nil {
			return Result{}, err
		}
		if err := sysdeps.Execute(ctx, plan); err != nil {
			return Result{}, err
		}
	}

	lock, err := e.store.Lock(name)
	if err != nil {
		return Result{}, vxerrors.NewIO(name, err)
	}
	defer lock.Unlock()

	// Re-check after acquiring the lock: a sibling goroutine installing a
	// shared dependency at the same version may have finished first.
	if e.store.IsInstalled(name, version, e.platform) {
		return Result{Runtime: name, Version: version, InstallPath: e.store.InstallDir(name, version, e.platform), Skipped: true, Reason: "already installed"}, nil
	}

	installPath, err := e.downloadAndPlace(ctx, spec.Name, version, resolved, spec, versions)
	if err != nil {
		e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StageFailed, Message: err.Error()})
		return Result{}, err
	}

	if err := e.verifyInstall(spec, installPath, version); err != nil {
		e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StageFailed, Message: err.Error()})
		return Result{}, err
	}

	e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StageInstalled})
	return Result{Runtime: name, Version: version, InstallPath: installPath}, nil
}

func (e *Engine) checkPlatform(allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	tag := e.platform.Tag()
	for _, a := range allowed {
		if a == tag {
			return nil
		}
	}
	return vxerrors.NewPlatformNotSupported(tag, fmt.Sprintf("supported platforms: %v", allowed))
}

func (e *Engine) downloadAndPlace(ctx context.Context, name, version string, resolved solver.ResolvedVersion, spec *registry.RuntimeSpec, versions []catalog.VersionInfo) (string, error) {
	art, err := resolveArtifact(spec, version, versionInfoFor(versions, version), e.platform)
	if err != nil {
		return "", err
	}

	installPath := e.store.InstallDir(name, version, e.platform)
	if err := os.MkdirAll(installPath, 0o755); err != nil {
		return "", vxerrors.NewIO(installPath, err)
	}

	tmpDir, err := os.MkdirTemp(e.store.Base(), "vx-download-*")
	if err != nil {
		return "", vxerrors.NewIO(tmpDir, err)
	}
	defer os.RemoveAll(tmpDir)

	e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StageDownloading, Message: art.downloadURL})
	dl, err := e.downloader.Fetch(ctx, art.source, tmpDir)
	if err != nil {
		return "", err
	}

	e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StageVerifying})
	if art.source.ChecksumValue != "" {
		if err := verify.VerifyChecksum(dl.Path, verify.ChecksumSpec{Algorithm: art.source.ChecksumAlgorithm, Value: art.source.ChecksumValue}); err != nil {
			return "", err
		}
	}

	e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StageExtracting})
	if art.isArchive {
		archiveType := archiveTypeFor(art.downloadURL, e.platform)
		extractor, err := extract.NewExtractor(archiveType)
		if err != nil {
			return "", vxerrors.NewExtractFailed(dl.Path, err)
		}
		f, err := os.Open(dl.Path)
		if err != nil {
			return "", vxerrors.NewExtractFailed(dl.Path, err)
		}
		defer f.Close()
		if err := extractor.Extract(f, installPath); err != nil {
			return "", vxerrors.NewExtractFailed(dl.Path, err)
		}
	} else {
		target := filepath.Join(installPath, art.binary.TargetName)
		if art.binary.TargetDir != "" {
			target = filepath.Join(installPath, art.binary.TargetDir, art.binary.TargetName)
		}
		if target == installPath {
			target = filepath.Join(installPath, spec.Executable+e.platform.ExecutableSuffix())
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", vxerrors.NewIO(target, err)
		}
		if err := os.Rename(dl.Path, target); err != nil {
			return "", vxerrors.NewIO(target, err)
		}
		if art.binary.TargetPermissions != "" {
			if mode, perr := parseOctal(art.binary.TargetPermissions); perr == nil {
				_ = os.Chmod(target, mode)
			}
		} else {
			_ = os.Chmod(target, 0o755)
		}
	}

	e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StageNormalizing})
	if _, err := normalize.Apply(installPath, spec.Normalize, normalize.Context{Name: name, Version: version}); err != nil {
		return "", err
	}

	e.reporter.Report(progress.Event{Runtime: name, Version: version, Stage: progress.StagePostInstall})
	return installPath, nil
}

// verifyInstall confirms the installed executable is present at the install
// root or under its bin/ directory (spec §4.7 step 11 post-install
// verification). It does not run the manifest's detection command or match
// its version pattern.
func (e *Engine) verifyInstall(spec *registry.RuntimeSpec, installPath, version string) error {
	exe := spec.Executable + e.platform.ExecutableSuffix()
	candidates := []string{
		filepath.Join(installPath, exe),
		filepath.Join(installPath, "bin", exe),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return nil
		}
	}
	return vxerrors.NewPostInstallVerificationFailed(spec.Name, installPath)
}

func parseOctal(s string) (os.FileMode, error) {
	var mode uint32
	if _, err := fmt.Sscanf(s, "%o", &mode); err != nil {
		return 0, err
	}
	return os.FileMode(mode), nil
}

// versionInfoFor finds the catalog entry matching version, or a zero-value
// VersionInfo carrying just the version string if the catalog's own
// listing no longer has it (e.g. a re-run against a pruned GitHub release
// list); resolveArtifact still has spec.Layout.URLTemplate to fall back on.
func versionInfoFor(versions []catalog.VersionInfo, version string) catalog.VersionInfo {
	for _, v := range versions {
		if v.Version == version {
			return v
		}
	}
	return catalog.VersionInfo{Version: version}
}
