// internal/cli/search.go
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arc-language/pkgdesk/pkg/catalog"
)

var searchScope string

var searchCmd = &cobra.Command{
	Use:   "search [term...]",
	Short: "Search packages",
	Long: `Search the repositories of every enabled backend, or the installed
packages with --scope=installed. Without a term the featured applications
are listed.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchScope, "scope", string(catalog.ScopeExplore), "where to search (installed, explore)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	scope, err := catalog.ParseScope(searchScope)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, err := newManager()
	if err != nil {
		return err
	}
	defer m.Close()

	term := strings.Join(args, " ")
	packages, err := m.Catalog().Search(ctx, term, scope)
	if err != nil {
		return fmt.Errorf("searching for %q: %w", term, err)
	}
	printPackages(cmd.OutOrStdout(), packages)
	return nil
}
