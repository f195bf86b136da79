// =============================================================================
// Revenue XML - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   revxml version
//
// OUTPUT:
//   Revenue XML
//   Version:    1.0.0
//   Build Date: 2025-07-14
//   Go Version: go1.24.11
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version and BuildDate are set at build time:
//
//	go build -ldflags "-X 'github.com/ginjaninja78/revenue-xml/cmd.Version=1.0.0' -X 'github.com/ginjaninja78/revenue-xml/cmd.BuildDate=2025-07-14'"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Revenue XML")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
