// internal/cli/index.go
package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/arc-language/pkgdesk/pkg/index"
	"github.com/arc-language/pkgdesk/pkg/registry"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the package registry",
}

var indexSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the latest package registry",
	Args:  cobra.NoArgs,
	RunE:  runIndexSync,
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry entries and their backend names",
	Args:  cobra.NoArgs,
	RunE:  runIndexList,
}

func init() {
	indexCmd.AddCommand(indexSyncCmd)
	indexCmd.AddCommand(indexListCmd)
}

func runIndexSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	err := index.Sync(ctx, index.Options{
		URL:      config.Index.URL,
		Branch:   config.Index.Branch,
		CacheDir: config.CachePath,
		Progress: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	entries, err := registry.New(config.CachePath).Entries()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Registry updated: %s entries (took %s)\n",
		humanize.Comma(int64(len(entries))), time.Since(start).Round(time.Millisecond))
	return nil
}

func runIndexList(cmd *cobra.Command, args []string) error {
	entries, err := registry.New(config.CachePath).Entries()
	if err != nil {
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("NAME", "FEATURED", "PACMAN", "APT", "DNF", "FLATPAK")
	for _, e := range entries {
		featured := ""
		if e.Featured {
			featured = "*"
		}
		table.AddRow(e.Name, featured, e.Backends["pacman"], e.Backends["apt"], e.Backends["dnf"], e.Backends["flatpak"])
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}
