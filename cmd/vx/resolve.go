package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vxrun/vx/internal/graph"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [tool[@constraint] ...]",
	Short: "Resolve a requested tool set without installing anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

// parseToolArg splits a "name" or "name@constraint" CLI argument.
func parseToolArg(arg string) graph.Request {
	name, constraint, found := strings.Cut(arg, "@")
	if !found {
		return graph.Request{Name: name, Constraint: "*"}
	}
	return graph.Request{Name: name, Constraint: constraint}
}

func runResolve(cmd *cobra.Command, args []string) error {
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

	cmd.Println("Install order:")
	for _, name := range result.InstallOrder {
		cmd.Printf("  %s\n", name)
	}
	if len(result.AvailableTools) > 0 {
		cmd.Println("Already available:")
		for _, name := range result.AvailableTools {
			cmd.Printf("  %s\n", name)
		}
	}
	if len(result.CircularDependencies) > 0 {
		cmd.Println("Circular dependencies:")
		for _, cycle := range result.CircularDependencies {
			cmd.Printf("  %s\n", strings.Join(cycle, " -> "))
		}
	}
	for _, vc := range result.VersionConflicts {
		cmd.Printf("Version conflict on %s:\n", vc.Runtime)
		for _, demand := range vc.Constraints {
			cmd.Printf("  %s wants %s\n", demand.RequiredBy, demand.Constraint)
		}
	}
	if len(result.VersionConflicts) > 0 {
		return fmt.Errorf("resolve: %d version conflict(s)", len(result.VersionConflicts))
	}
	return nil
}
