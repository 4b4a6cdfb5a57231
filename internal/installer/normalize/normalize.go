// Package normalize implements the post-extraction layout canonicalizer
// (spec §4.8): it turns an arbitrary extracted archive tree into a
// canonical bin/ directory of standardized executable names plus alias
// symlinks, by applying a manifest's NormalizeConfig rules.
package normalize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	vxerrors "github.com/vxrun/vx/internal/errors"
	"github.com/vxrun/vx/internal/manifest"
)

// Context carries the interpolation variables available to rule sources/targets.
type Context struct {
	Name    string
	Version string
}

// Result tallies what the normalizer did, for progress reporting.
type Result struct {
	ExecutablesNormalized int
	DirectoriesNormalized int
	AliasesCreated        int
	Warnings              []string
}

// Apply runs cfg's rules against installPath (spec §4.8).
func Apply(installPath string, cfg manifest.NormalizeConfig, ctx Context) (Result, error) {
	var result Result
	if !cfg.Enabled {
		return result, nil
	}

	binDir := filepath.Join(installPath, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return result, vxerrors.NewNormalizeFailed(ctx.Name, binDir, err)
	}

	for _, rule := range cfg.Executables {
		ok, err := applyFileRule(installPath, binDir, rule.Source, rule.Target, rule.Action, rule.Permissions, ctx)
		if err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		if ok {
			result.ExecutablesNormalized++
		}
	}

	for _, rule := range cfg.Directories {
		ok, err := applyDirRule(installPath, binDir, rule.Source, rule.Target, rule.Action, ctx)
		if err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		if ok {
			result.DirectoriesNormalized++
		}
	}

	for _, alias := range cfg.Aliases {
		if err := applyAlias(binDir, alias.Name, alias.Target); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		result.AliasesCreated++
	}

	return result, nil
}

func applyFileRule(installPath, binDir, source, target string, action manifest.NormalizeAction, permissions string, ctx Context) (bool, error) {
	source, err := manifest.Interpolate(source, varsFor(ctx))
	if err != nil {
		return false, fmt.Errorf("normalize: %w", err)
	}
	target, err = manifest.Interpolate(target, varsFor(ctx))
	if err != nil {
		return false, fmt.Errorf("normalize: %w", err)
	}

	destPath := filepath.Join(binDir, target)
	if _, err := os.Stat(destPath); err == nil {
		return false, nil // already normalized, skip (spec §4.8 step 2)
	}

	matches, err := filepath.Glob(filepath.Join(installPath, source))
	if err != nil {
		return false, fmt.Errorf("normalize: glob %q: %w", source, err)
	}
	if len(matches) == 0 {
		return false, nil
	}

	if err := place(matches[0], destPath, action, false); err != nil {
		return false, err
	}

	if permissions != "" {
		mode, perr := parseMode(permissions)
		if perr == nil {
			_ = os.Chmod(destPath, mode)
		}
	}
	return true, nil
}

func applyDirRule(installPath, binDir, source, target string, action manifest.NormalizeAction, ctx Context) (bool, error) {
	source, err := manifest.Interpolate(source, varsFor(ctx))
	if err != nil {
		return false, fmt.Errorf("normalize: %w", err)
	}
	target, err = manifest.Interpolate(target, varsFor(ctx))
	if err != nil {
		return false, fmt.Errorf("normalize: %w", err)
	}

	destPath := filepath.Join(binDir, target)
	if _, err := os.Stat(destPath); err == nil {
		return false, nil
	}

	matches, err := filepath.Glob(filepath.Join(installPath, source))
	if err != nil {
		return false, fmt.Errorf("normalize: glob %q: %w", source, err)
	}
	if len(matches) == 0 {
		return false, nil
	}

	if err := place(matches[0], destPath, action, true); err != nil {
		return false, err
	}
	return true, nil
}

func applyAlias(binDir, name, target string) error {
	targetPath := filepath.Join(binDir, target)
	aliasPath := filepath.Join(binDir, name)
	if _, err := os.Stat(aliasPath); err == nil {
		return nil
	}
	if _, err := os.Stat(targetPath); err != nil {
		return fmt.Errorf("normalize: alias target %q does not exist", target)
	}
	return os.Symlink(target, aliasPath)
}

// place performs action from src to dest, with the Windows link-failure
// fallback to hard-link (files) or copy (directories) from spec §4.8 step 4.
func place(src, dest string, action manifest.NormalizeAction, isDir bool) error {
	if action == "" {
		action = manifest.ActionLink
	}

	switch action {
	case manifest.ActionMove:
		return os.Rename(src, dest)
	case manifest.ActionCopy:
		return copyPath(src, dest, isDir)
	case manifest.ActionHardLink:
		if isDir {
			return copyPath(src, dest, isDir)
		}
		return os.Link(src, dest)
	case manifest.ActionLink:
		err := os.Symlink(src, dest)
		if err != nil && runtime.GOOS == "windows" {
			if isDir {
				return copyPath(src, dest, isDir)
			}
			return os.Link(src, dest)
		}
		return err
	default:
		return fmt.Errorf("normalize: unknown action %q", action)
	}
}

func copyPath(src, dest string, isDir bool) error {
	if !isDir {
		return copyFile(src, dest)
	}
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func parseMode(permissions string) (os.FileMode, error) {
	var mode uint32
	_, err := fmt.Sscanf(permissions, "%o", &mode)
	return os.FileMode(mode), err
}

func varsFor(ctx Context) manifest.Vars {
	return manifest.Vars{
		"name":    ctx.Name,
		"version": ctx.Version,
	}
}
