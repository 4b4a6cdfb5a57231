package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed runtimes, or every known runtime with --all",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "Include runtimes known to the registry but not installed")
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runList(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	e, err := newEngine(settings)
	if err != nil {
		return err
	}

	names := e.Registry().Names()
	sort.Strings(names)

	cmd.Println(headerStyle.Render(fmt.Sprintf("%-16s %-10s %s", "RUNTIME", "STATUS", "VERSIONS")))
	for _, name := range names {
		versions, _ := e.Store().InstalledVersions(name)
		if len(versions) == 0 && !listAll {
			continue
		}
		status := "installed"
		versionList := strings.Join(versions, ", ")
		if len(versions) == 0 {
			status = "not installed"
			versionList = dimStyle.Render("-")
		}
		cmd.Printf("%-16s %-10s %s\n", name, status, versionList)
	}
	return nil
}
