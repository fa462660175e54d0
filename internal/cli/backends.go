// internal/cli/backends.go
package cli

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	pkgbackend "github.com/arc-language/pkgdesk/pkg/backend"
	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/elevate"
	"github.com/arc-language/pkgdesk/pkg/platform"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List package manager backends",
	Long:  `List every supported backend and whether it is installed and enabled on this system.`,
	Args:  cobra.NoArgs,
	RunE:  runBackends,
}

func runBackends(cmd *cobra.Command, args []string) error {
	// Detect platform
	plat, err := platform.Detect()
	if err != nil {
		return fmt.Errorf("detecting platform: %w", err)
	}
	enabled := platform.Enabled(plat, config)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Platform: %s/%s", plat.OS, plat.Arch)
	if plat.DistroID != "" {
		fmt.Fprintf(out, " (%s)", plat.DistroID)
	}
	fmt.Fprint(out, "\n\n")

	all, err := pkgbackend.NewAll(nil, pkgbackend.ConfigFrom(config, nil))
	if err != nil {
		return err
	}

	table := uitable.New()
	table.AddRow("", "BACKEND", "BINARY", "STATUS")
	for _, t := range core.AllBackends {
		marker := " "
		if t == plat.Preferred {
			marker = "*"
		}
		table.AddRow(marker, t, all[t].Binary(), backendStatus(t, all[t], enabled))
	}
	fmt.Fprintln(out, table)

	if plat.Preferred != "" {
		fmt.Fprintf(out, "\n* = preferred backend\n")
	}

	mode, err := elevate.ParseMode(config.Elevation.Mode)
	if err != nil {
		return err
	}
	helper := elevate.New(elevate.Options{Mode: mode, Path: config.Elevation.Path})
	fmt.Fprintf(out, "Privilege escalation: %s\n", helper.Mode())
	return nil
}

func backendStatus(t core.BackendType, b pkgbackend.Backend, enabled []core.BackendType) string {
	if err := b.Available(); err != nil {
		return "not installed"
	}
	for _, e := range enabled {
		if e == t {
			return "enabled"
		}
	}
	return "disabled"
}
