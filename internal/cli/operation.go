// internal/cli/operation.go
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arc-language/pkgdesk"
	"github.com/arc-language/pkgdesk/pkg/core"
)

var verbose bool

var installCmd = &cobra.Command{
	Use:   "install [package...]",
	Short: "Install one or more packages",
	Long: `Install packages using the configured or auto-detected backend.

Examples:
  pkgdesk install vim
  pkgdesk install firefox --backend=flatpak
  pkgdesk install gimp inkscape`,
	Args: cobra.MinimumNArgs(1),
	RunE: actionRunner(core.ActionInstall),
}

var removeCmd = &cobra.Command{
	Use:     "remove [package...]",
	Aliases: []string{"uninstall"},
	Short:   "Remove one or more packages",
	Args:    cobra.MinimumNArgs(1),
	RunE:    actionRunner(core.ActionRemove),
}

var updateCmd = &cobra.Command{
	Use:   "update [package...]",
	Short: "Update packages, or every package when none is given",
	RunE:  actionRunner(core.ActionUpdate),
}

var queryCmd = &cobra.Command{
	Use:   "query [package]",
	Short: "Show what the backend knows about a package",
	Args:  cobra.ExactArgs(1),
	RunE:  actionRunner(core.ActionQuery),
}

func init() {
	for _, cmd := range []*cobra.Command{installCmd, removeCmd, updateCmd} {
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print package manager output")
	}
}

func actionRunner(action core.Action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		m, err := newManager()
		if err != nil {
			return err
		}
		defer m.Close()

		b, err := targetBackend(m)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			// update without arguments upgrades the whole system
			args = []string{""}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range args {
			if err := runOne(ctx, m, out, core.Request{Backend: b, Action: action, Package: name}); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", err)
				failed++
			}
			if ctx.Err() != nil {
				break
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d %s operations failed", failed, len(args), action)
		}
		return nil
	}
}

func runOne(ctx context.Context, m *pkgdesk.Manager, out io.Writer, req core.Request) error {
	op, err := m.Run(ctx, req)
	if err != nil {
		return err
	}

	if req.Action == core.ActionQuery {
		return printQuery(out, op)
	}

	fmt.Fprintf(out, "%s %s with %s\n", progressVerb(req.Action), describe(op.Request), req.Backend)
	r := &progressRenderer{out: out, verbose: verbose}
	for ev := range op.Events() {
		r.Render(ev)
	}

	result := op.Result()
	if !result.Success() {
		return result.Err
	}
	fmt.Fprintf(out, "✓ %s %s\n", doneVerb(req.Action), describe(op.Request))
	return nil
}

// printQuery copies the backend's output verbatim
func printQuery(out io.Writer, op *pkgdesk.Operation) error {
	for ev := range op.Events() {
		if ev.Line != "" {
			fmt.Fprintln(out, ev.Line)
		}
	}
	if result := op.Result(); !result.Success() {
		return result.Err
	}
	return nil
}

// progressRenderer prints one line per status change
type progressRenderer struct {
	out     io.Writer
	verbose bool
	last    string
}

func (r *progressRenderer) Render(ev core.Event) {
	if r.verbose && ev.Line != "" {
		fmt.Fprintf(r.out, "  | %s\n", ev.Line)
	}
	if ev.Done || ev.Status == r.last {
		return
	}
	r.last = ev.Status
	fmt.Fprintf(r.out, "  [%3.0f%%] %s\n", ev.Progress, ev.Status)
}

func describe(req core.Request) string {
	if req.UpdatesAll() {
		return "all packages"
	}
	return req.Package
}

func progressVerb(a core.Action) string {
	switch a {
	case core.ActionInstall:
		return "Installing"
	case core.ActionRemove:
		return "Removing"
	case core.ActionUpdate:
		return "Updating"
	}
	return "Running " + string(a) + " for"
}

func doneVerb(a core.Action) string {
	switch a {
	case core.ActionInstall:
		return "Installed"
	case core.ActionRemove:
		return "Removed"
	case core.ActionUpdate:
		return "Updated"
	}
	return string(a)
}
