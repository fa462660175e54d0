// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/loggo"
	"github.com/spf13/cobra"

	"github.com/arc-language/pkgdesk"
	"github.com/arc-language/pkgdesk/internal/logging"
	"github.com/arc-language/pkgdesk/pkg/core"
)

var logger = loggo.GetLogger("pkgdesk.cli")

var (
	cfgFile string
	backend string
	debug   bool
	config  *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pkgdesk",
	Short: "Linux app store backend",
	Long: `pkgdesk - Linux app store backend

Lists, installs, removes and updates packages through pacman, apt,
dnf, yum and flatpak, and serves the store UI over a websocket.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pkgdesk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "package manager backend to use (pacman, apt, dnf, yum, flatpak)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = core.DefaultConfig()
	}

	// Override config with flags
	if backend != "" {
		config.DefaultBackend = backend
	}
	if debug {
		config.Debug = true
	}

	if err := logging.Setup(os.Stderr, config.Debug, os.Getenv("PKGDESK_LOGGING")); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newManager() (*pkgdesk.Manager, error) {
	m, err := pkgdesk.New(config)
	if err != nil {
		return nil, fmt.Errorf("initializing package manager: %w", err)
	}
	logger.Debugf("enabled backends: %v, default %q", m.Backends(), m.Default())
	return m, nil
}

// targetBackend returns the backend named by --backend or the config, else the default
func targetBackend(m *pkgdesk.Manager) (core.BackendType, error) {
	if config.DefaultBackend != "" {
		return core.ParseBackend(config.DefaultBackend)
	}
	if b := m.Default(); b != "" {
		return b, nil
	}
	return "", fmt.Errorf("%w: no native package manager found, use --backend", core.ErrBackendNotAvailable)
}
