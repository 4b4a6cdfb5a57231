package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vxrun/vx/internal/graph"
	"github.com/vxrun/vx/internal/lockfile"
)

var lockPath string

var lockCmd = &cobra.Command{
	Use:   "lock [tool[@constraint] ...]",
	Short: "Resolve a tool set and write concrete versions into a lockfile",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLock,
}

func init() {
	lockCmd.Flags().StringVar(&lockPath, "file", "vx.lock", "Lockfile path to write")
}

// runLock resolves requests the same way `vx resolve` does, then records,
// for every runtime in the install order (dependencies included), the last
// version in the store's listing of its installed versions, together with
// the constraint it was requested with (spec §4.11). It does not install
// anything: a runtime with no installed version makes it fail and ask for
// `vx install` first.
func runLock(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	e, err := newEngine(settings)
	if err != nil {
		return err
	}

	requests := make([]graph.Request, 0, len(args))
	for _, arg := range args {
		requests = append(requests, parseToolArg(arg))
	}

	result, err := e.Resolve(requests, graph.Policy{})
	if err != nil {
		return err
	}
	if len(result.VersionConflicts) > 0 {
		return fmt.Errorf("lock: %d version conflict(s), refusing to write a lockfile", len(result.VersionConflicts))
	}

	lf, err := lockfile.Load(lockPath)
	if err != nil {
		lf = lockfile.New()
	}
	lf.Metadata.VXVersion = version
	lf.Metadata.Platform = e.Platform().Tag()
	lf.Metadata.GeneratedAt = stampGeneratedAt()

	for _, name := range result.InstallOrder {
		versions, verr := e.Store().InstalledVersions(name)
		if verr != nil || len(versions) == 0 {
			return fmt.Errorf("lock: %s resolved but nothing installed; run `vx install` first", name)
		}
		resolvedVersion := versions[len(versions)-1]

		spec, ok := e.Registry().Get(name)
		ecosystem := name
		if ok && spec.Ecosystem != "" {
			ecosystem = string(spec.Ecosystem)
		}

		resolvedFrom := "*"
		for _, req := range requests {
			if canonical, found := e.Registry().ResolveName(req.Name); found && canonical == name {
				resolvedFrom = req.Constraint
			}
		}

		lf.LockTool(name, lockfile.LockedTool{
			Version:      resolvedVersion,
			ResolvedFrom: resolvedFrom,
			Ecosystem:    ecosystem,
		})
	}

	for _, req := range requests {
		if spec, ok := e.Registry().Get(req.Name); ok && spec.Def() != nil {
			var deps []string
			for _, d := range spec.Def().Dependencies {
				deps = append(deps, d.Name)
			}
			if len(deps) > 0 {
				lf.Dependencies[req.Name] = deps
			}
		}
	}

	if err := lf.Save(lockPath); err != nil {
		return err
	}
	cmd.Printf("wrote %s (%d tool(s))\n", lockPath, len(lf.Tools))
	return nil
}

// stampGeneratedAt returns the current UTC time in RFC 3339 form for the
// lockfile's generated_at field.
func stampGeneratedAt() string {
	return time.Now().UTC().Format(time.RFC3339)
}
