package main

import (
	"errors"

	"github.com/spf13/cobra"

	vxerrors "github.com/vxrun/vx/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "vx",
	Short: "Universal, project-aware runtime version manager",
	Long: `vx resolves, installs, and runs language/tool runtimes (node, python, go,
yarn, cargo, and more) per-project, without requiring a separate version
manager per ecosystem.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(
		versionCmd,
		resolveCmd,
		installCmd,
		runCmd,
		listCmd,
		lockCmd,
		doctorCmd,
	)
}

// exitCodeFor maps a returned error onto the POSIX sysexits code the spec
// associates with its Code (spec §7), defaulting to a generic failure code
// for errors that never passed through the internal/errors taxonomy.
func exitCodeFor(err error) int {
	var vxErr *vxerrors.Error
	if errors.As(err, &vxErr) {
		return vxerrors.ExitCode(vxErr.Code)
	}
	return 1
}
