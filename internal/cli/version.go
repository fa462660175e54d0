// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release version, overridden at link time
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pkgdesk version %s\n", Version)
		fmt.Fprintln(cmd.OutOrStdout(), "Linux app store backend")
		fmt.Fprintln(cmd.OutOrStdout(), "https://github.com/arc-language/pkgdesk")
	},
}
