package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vxrun/vx/internal/sysdeps"
)

var doctorNoColor bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the environment: host package managers and store integrity",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorNoColor, "no-color", false, "Disable color output")
}

// doctorIssue is one finding surfaced by `vx doctor`.
type doctorIssue struct {
	Runtime string
	Message string
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.NoColor || doctorNoColor {
		color.NoColor = true
	}
	e, err := newEngine(settings)
	if err != nil {
		return err
	}

	cmd.Println(headerStyle.Render("Host package managers"))
	managers := sysdeps.DetectAvailableManagers(e.Platform())
	if len(managers) == 0 {
		cmd.Printf("  %s no supported package manager found on PATH\n", color.New(color.FgYellow).Sprint("!"))
	}
	for _, mgr := range managers {
		cmd.Printf("  %s %s\n", color.New(color.FgGreen).Sprint("ok"), mgr)
	}
	cmd.Println()

	cmd.Println(headerStyle.Render("Installed runtimes"))
	var issues []doctorIssue
	names := e.Registry().Names()
	sort.Strings(names)
	for _, name := range names {
		versions, err := e.Store().InstalledVersions(name)
		if err != nil || len(versions) == 0 {
			continue
		}
		for _, v := range versions {
			dir := e.Store().InstallDir(name, v, e.Platform())
			if problem := checkInstallDir(dir); problem != "" {
				issues = append(issues, doctorIssue{Runtime: fmt.Sprintf("%s@%s", name, v), Message: problem})
				continue
			}
			cmd.Printf("  %s %s@%s\n", color.New(color.FgGreen).Sprint("ok"), name, v)
		}
	}

	if len(issues) == 0 {
		cmd.Println(color.New(color.FgGreen).Sprint("No issues found."))
		return nil
	}

	cmd.Println()
	cmd.Println(headerStyle.Render("Issues"))
	for _, issue := range issues {
		cmd.Printf("  %s %s: %s\n", color.New(color.FgRed).Sprint("fail"), issue.Runtime, issue.Message)
	}
	return fmt.Errorf("doctor: %d issue(s) found", len(issues))
}

// checkInstallDir reports a human-readable problem with an install
// directory's on-disk state, or "" if it looks healthy. It does not inspect
// individual normalized executables — only that the directory itself still
// exists and is non-empty, since normalize.Apply's own rewrite rules are
// the source of truth for what belongs inside it.
func checkInstallDir(dir string) string {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Sprintf("install directory missing: %s", dir)
	}
	if err != nil {
		return err.Error()
	}
	if !info.IsDir() {
		return fmt.Sprintf("expected a directory at %s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err.Error()
	}
	if len(entries) == 0 {
		return fmt.Sprintf("install directory is empty: %s", dir)
	}
	return ""
}
