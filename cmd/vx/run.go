package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vxrun/vx/internal/engine"
	"github.com/vxrun/vx/internal/envcompose"
	"github.com/vxrun/vx/internal/graph"
)

var runWith []string

var runCmd = &cobra.Command{
	Use:   "run <tool>[@constraint] -- <command> [args...]",
	Short: "Resolve and install tool@constraint if needed, then run a command in its environment",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runWith, "with", nil, "Additional installed runtime to inject into PATH (repeatable)")
}

func runRun(cmd *cobra.Command, args []string) error {
	req := parseToolArg(args[0])
	command := args[1:]
	if len(command) == 0 {
		return fmt.Errorf("run: no command given after %s", args[0])
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	e, err := newEngine(settings)
	if err != nil {
		return err
	}

	ctx := context.Background()
	results, err := e.InstallAll(ctx, []graph.Request{req})
	if err != nil {
		return err
	}

	var version string
	for _, r := range results {
		if r.Runtime == req.Name || strings.EqualFold(r.Runtime, req.Name) {
			version = r.Version
		}
	}
	if version == "" {
		// A request delegated to a managed_by parent comes back without a
		// version, and one named by an alias matches no result's canonical
		// runtime name; fall back to whatever's on disk.
		versions, verr := e.Store().InstalledVersions(req.Name)
		if verr != nil || len(versions) == 0 {
			return fmt.Errorf("run: %s has no installed version after install", req.Name)
		}
		version = versions[len(versions)-1]
	}

	var withOverlay []envcompose.InstalledRuntime
	for _, name := range runWith {
		if rt, ok := resolveInstalled(e, name); ok {
			withOverlay = append(withOverlay, rt)
		}
	}

	env, err := e.PrepareExecution(req.Name, version, withOverlay, envFromOS())
	if err != nil {
		return err
	}

	child := exec.CommandContext(ctx, command[0], command[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Env = make([]string, 0, len(env))
	for k, v := range env {
		child.Env = append(child.Env, fmt.Sprintf("%s=%s", k, v))
	}

	runErr := child.Run()
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	return runErr
}

func envFromOS() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}

// resolveInstalled picks an installed version of name for --with overlay
// purposes: the last one in the store's listing, which is ordered by
// directory name, not by version precedence. A name with nothing installed
// contributes no PATH entry rather than failing the whole run.
func resolveInstalled(e *engine.Engine, name string) (envcompose.InstalledRuntime, bool) {
	canonical, ok := e.Registry().ResolveName(name)
	if !ok {
		canonical = name
	}
	versions, err := e.Store().InstalledVersions(canonical)
	if err != nil || len(versions) == 0 {
		return envcompose.InstalledRuntime{}, false
	}
	version := versions[len(versions)-1]

	spec, _ := e.Registry().Get(canonical)
	var envVars map[string]string
	if spec != nil {
		envVars = spec.EnvVars
	}
	return envcompose.InstalledRuntime{
		Name:          canonical,
		Version:       version,
		InstalledRoot: e.Store().InstallDir(canonical, version, e.Platform()),
		AllVersions:   versions,
		EnvVars:       envVars,
	}, true
}
