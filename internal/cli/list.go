// internal/cli/list.go
package cli

import (
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/arc-language/pkgdesk/pkg/core"
)

var listSource string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long:  `List installed packages of every enabled backend.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "List available updates",
	Args:  cobra.NoArgs,
	RunE:  runUpdates,
}

func init() {
	listCmd.Flags().StringVar(&listSource, "source", "", "only show packages of this backend")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m, err := newManager()
	if err != nil {
		return err
	}
	defer m.Close()

	packages, err := m.Catalog().Installed(ctx)
	if err != nil {
		return fmt.Errorf("listing installed packages: %w", err)
	}
	if listSource != "" {
		b, err := core.ParseBackend(listSource)
		if err != nil {
			return err
		}
		packages = bySource(packages, b)
	}

	printPackages(cmd.OutOrStdout(), packages)
	return nil
}

func runUpdates(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m, err := newManager()
	if err != nil {
		return err
	}
	defer m.Close()

	packages, err := m.Catalog().Updates(ctx)
	if err != nil {
		return fmt.Errorf("listing updates: %w", err)
	}
	printUpdates(cmd.OutOrStdout(), packages)
	return nil
}

func bySource(packages []core.Package, b core.BackendType) []core.Package {
	var out []core.Package
	for _, p := range packages {
		if p.Source == b {
			out = append(out, p)
		}
	}
	return out
}

func printPackages(w io.Writer, packages []core.Package) {
	if len(packages) == 0 {
		fmt.Fprintln(w, "No packages found.")
		return
	}

	table := uitable.New()
	table.MaxColWidth = 50
	table.Wrap = true
	table.AddRow("NAME", "VERSION", "SOURCE", "INSTALLED", "DESCRIPTION")
	for _, p := range packages {
		installed := ""
		if p.Installed {
			installed = "yes"
		}
		table.AddRow(p.Name, p.Version, p.Source, installed, p.Description)
	}
	fmt.Fprintln(w, table)
}

func printUpdates(w io.Writer, packages []core.Package) {
	if len(packages) == 0 {
		fmt.Fprintln(w, "Everything is up to date.")
		return
	}

	table := uitable.New()
	table.MaxColWidth = 50
	table.AddRow("NAME", "CURRENT", "NEW", "SOURCE")
	for _, p := range packages {
		table.AddRow(p.Name, p.Version, p.NewVersion, p.Source)
	}
	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "\n%d updates available\n", len(packages))
}
