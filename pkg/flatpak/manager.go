// pkg/flatpak/manager.go
package flatpak

import (
	"context"
	"fmt"

	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

var logger = loggo.GetLogger("pkgdesk.flatpak")

// NewPackageManager creates a Flatpak backend
func NewPackageManager(cfg *Config) *PackageManager {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Remote == "" {
		cfg.Remote = DefaultRemote
	}
	if cfg.Runner == nil {
		cfg.Runner = runner.New()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &PackageManager{config: cfg}
}

// Name returns the backend identifier
func (pm *PackageManager) Name() core.BackendType {
	return core.BackendFlatpak
}

// Binary returns the program this backend drives
func (pm *PackageManager) Binary() string {
	return Binary
}

// Available checks that flatpak is installed
func (pm *PackageManager) Available() error {
	_, err := runner.Resolve(pm.config.LookPath, Binary)
	return err
}

// Command builds the invocation for req. flatpak handles authorization for
// system installations through polkit itself, so it never needs a helper.
func (pm *PackageManager) Command(req core.Request) (runner.Command, bool, error) {
	path, err := runner.Resolve(pm.config.LookPath, Binary)
	if err != nil {
		return runner.Command{}, false, err
	}

	var args []string
	switch req.Action {
	case core.ActionInstall:
		args = pm.mutating("install")
		args = append(args, pm.config.Remote, req.Package)
	case core.ActionRemove:
		args = append(pm.mutating("uninstall"), req.Package)
	case core.ActionUpdate:
		args = pm.mutating("update")
		if !req.UpdatesAll() {
			args = append(args, req.Package)
		}
	case core.ActionQuery:
		args = []string{"info", req.Package}
	default:
		return runner.Command{}, false, fmt.Errorf("%w: %q", core.ErrUnsupportedAction, req.Action)
	}

	return runner.Command{Path: path, Args: args, Env: env}, false, nil
}

func (pm *PackageManager) mutating(verb string) []string {
	args := []string{verb, flagYes, flagNonInteractive}
	if pm.config.User {
		args = append(args, flagUser)
	}
	return args
}

// Installed lists installed applications
func (pm *PackageManager) Installed(ctx context.Context) ([]core.Package, error) {
	out, err := pm.output(ctx, "list", flagApps, columnsInstalled)
	if err != nil {
		return nil, fmt.Errorf("listing installed applications: %w", err)
	}
	packages := ParseColumns(out, true)
	logger.Debugf("%d installed applications", len(packages))
	return packages, nil
}

// Updates lists applications with pending updates
func (pm *PackageManager) Updates(ctx context.Context) ([]core.Package, error) {
	out, err := pm.output(ctx, "remote-ls", "--updates", flagApps, columnsUpdates)
	if err != nil {
		return nil, fmt.Errorf("listing updates: %w", err)
	}
	return ParseUpdates(out), nil
}

// Search searches the configured remotes
func (pm *PackageManager) Search(ctx context.Context, term string) ([]core.Package, error) {
	out, err := pm.output(ctx, "search", columnsSearch, term)
	if err != nil {
		return nil, fmt.Errorf("searching for %s: %w", term, err)
	}
	return ParseColumns(out, false), nil
}

// IsInstalled checks a single application ID
func (pm *PackageManager) IsInstalled(ctx context.Context, id string) (bool, error) {
	path, err := runner.Resolve(pm.config.LookPath, Binary)
	if err != nil {
		return false, err
	}
	cmd := runner.Command{Path: path, Args: []string{"info", id}, Env: env}
	return runner.Succeeds(ctx, pm.config.Runner, pm.config.Timeout, cmd)
}

func (pm *PackageManager) output(ctx context.Context, args ...string) (string, error) {
	path, err := runner.Resolve(pm.config.LookPath, Binary)
	if err != nil {
		return "", err
	}
	cmd := runner.Command{Path: path, Args: args, Env: env}
	return runner.OutputWithin(ctx, pm.config.Runner, pm.config.Timeout, cmd)
}
