// internal/cli/serve.go
package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arc-language/pkgdesk"
	"github.com/arc-language/pkgdesk/internal/bridge"
	"github.com/arc-language/pkgdesk/pkg/index"
	"github.com/arc-language/pkgdesk/pkg/registry"
)

var (
	serveListen string
	serveUIDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store UI and its websocket bridge",
	Long: `Serve the store UI directory on / and the JSON protocol on /ws.
Operations keep running when the UI disconnects; SIGINT or SIGTERM
cancels them and stops the server.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default from config, 127.0.0.1:8765)")
	serveCmd.Flags().StringVar(&serveUIDir, "ui-dir", "", "directory holding the UI assets")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListen != "" {
		config.Server.Listen = serveListen
	}
	if serveUIDir != "" {
		config.Server.UIDir = serveUIDir
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, err := newManager()
	if err != nil {
		return err
	}

	if done, _ := pkgdesk.BootstrapDone(config.Bootstrap.FlagFile); !done {
		logger.Warningf("initial check not done yet, run 'pkgdesk check'")
	}
	go syncIndexIfMissing(ctx, m)

	srv := bridge.New(bridge.Options{
		Service: bridge.NewService(m),
		UIDir:   config.Server.UIDir,
	})
	serveErr := srv.ListenAndServe(ctx, config.Server.Listen)

	logger.Infof("shutting down")
	m.Close()
	srv.Wait()
	return serveErr
}

// syncIndexIfMissing fetches the registry on first start. Failures only
// cost the registry overrides; the built-in entries keep working.
func syncIndexIfMissing(ctx context.Context, m *pkgdesk.Manager) {
	dir := filepath.Join(config.CachePath, registry.Dir)
	if _, err := os.Stat(dir); err == nil {
		return
	}
	err := index.Sync(ctx, index.Options{
		URL:      config.Index.URL,
		Branch:   config.Index.Branch,
		CacheDir: config.CachePath,
	})
	if err != nil {
		logger.Warningf("package index not synced: %v", err)
		return
	}
	m.Catalog().Invalidate()
}
