// internal/cli/check.go
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arc-language/pkgdesk"
	"github.com/arc-language/pkgdesk/pkg/core"
)

var (
	checkYes   bool
	checkForce bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Make sure the packages the store relies on are installed",
	Long: `Run the one-time initial check: every package listed under
bootstrap.required (flatpak by default) is installed with the native
backend after confirmation. Success is recorded and later runs are skipped.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkYes, "yes", "y", false, "install missing packages without asking")
	checkCmd.Flags().BoolVar(&checkForce, "force", false, "run the check even if it already succeeded")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	flagFile := config.Bootstrap.FlagFile

	if done, at := pkgdesk.BootstrapDone(flagFile); done && !checkForce {
		fmt.Fprintf(out, "Initial check done %s.\n", humanize.Time(at))
		return nil
	}

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

	if checkForce && flagFile != "" {
		if err := os.Remove(flagFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("resetting initial check: %w", err)
		}
	}

	opts := pkgdesk.BootstrapOptions{
		Backend:  b,
		Required: config.Bootstrap.Required,
		FlagFile: flagFile,
		OnEvent:  (&progressRenderer{out: out}).Render,
	}
	if !checkYes {
		opts.Confirm = prompter(cmd.InOrStdin(), out)
	}

	if err := m.Bootstrap(ctx, opts); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ All required packages are installed (%s).\n", strings.Join(config.Bootstrap.Required, ", "))
	return nil
}

// prompter asks on out and reads the answer from in; only y or yes approves
func prompter(in io.Reader, out io.Writer) pkgdesk.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, b core.BackendType, name string) (bool, error) {
		fmt.Fprintf(out, "%s is required but not installed. Install it with %s? [y/N] ", name, b)
		answer, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
