package main

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vxrun/vx/internal/graph"
	"github.com/vxrun/vx/internal/progress"
)

var installPlain bool

var installCmd = &cobra.Command{
	Use:   "install [tool[@constraint] ...]",
	Short: "Resolve and install a tool set, respecting dependency order",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installPlain, "plain", false, "Disable the interactive multi-runtime progress view")
}

func runInstall(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	requests := make([]graph.Request, 0, len(args))
	for _, arg := range args {
		requests = append(requests, parseToolArg(arg))
	}

	var reporter progress.Reporter
	if len(requests) > 1 && !installPlain && !settings.NoColor && isatty.IsTerminal(os.Stdout.Fd()) {
		reporter = progress.NewTUIReporter()
	}

	e, err := newEngineWithReporter(settings, reporter)
	if err != nil {
		return err
	}

	results, err := e.InstallAll(context.Background(), requests)
	if err != nil {
		return err
	}

	for _, r := range results {
		switch {
		case r.Skipped:
			cmd.Printf("%s@%s: %s\n", r.Runtime, r.Version, r.Reason)
		default:
			cmd.Printf("%s@%s: installed to %s\n", r.Runtime, r.Version, r.InstallPath)
		}
	}
	return nil
}
