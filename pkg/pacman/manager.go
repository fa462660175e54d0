// pkg/pacman/manager.go
package pacman

import (
	"context"
	"fmt"

	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

var logger = loggo.GetLogger("pkgdesk.pacman")

// NewPackageManager creates a pacman backend
func NewPackageManager(cfg *Config) *PackageManager {
	if cfg == nil {
		cfg = &Config{}
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
	return core.BackendPacman
}

// Binary returns the program this backend drives
func (pm *PackageManager) Binary() string {
	return Binary
}

// Available checks that pacman is installed
func (pm *PackageManager) Available() error {
	_, err := runner.Resolve(pm.config.LookPath, Binary)
	return err
}

// Command builds the invocation for req. Everything except query needs root.
func (pm *PackageManager) Command(req core.Request) (runner.Command, bool, error) {
	path, err := runner.Resolve(pm.config.LookPath, Binary)
	if err != nil {
		return runner.Command{}, false, err
	}

	var args []string
	switch req.Action {
	case core.ActionInstall:
		args = []string{flagSync, flagNoConfirm, req.Package}
	case core.ActionRemove:
		args = []string{flagRemove, flagNoConfirm, req.Package}
	case core.ActionUpdate:
		if req.UpdatesAll() {
			args = []string{flagSysUpgrade, flagNoConfirm}
		} else {
			args = []string{flagSync, flagNoConfirm, req.Package}
		}
	case core.ActionQuery:
		args = []string{flagQueryInfo, req.Package}
	default:
		return runner.Command{}, false, fmt.Errorf("%w: %q", core.ErrUnsupportedAction, req.Action)
	}

	return runner.Command{Path: path, Args: args, Env: env}, req.Action.Mutates(), nil
}

// Installed lists installed packages
func (pm *PackageManager) Installed(ctx context.Context) ([]core.Package, error) {
	out, err := pm.output(ctx, flagQueryInfo)
	if err != nil {
		return nil, fmt.Errorf("listing installed packages: %w", err)
	}
	packages := ParseInfo(out)
	logger.Debugf("%d installed packages", len(packages))
	return packages, nil
}

// Updates lists packages with a newer version in the sync databases
func (pm *PackageManager) Updates(ctx context.Context) ([]core.Package, error) {
	out, err := pm.output(ctx, flagUpgrades)
	// -Qu exits 1 when nothing is outdated
	if err != nil && core.ExitCode(err) != 1 {
		return nil, fmt.Errorf("listing updates: %w", err)
	}
	return ParseUpgrades(out), nil
}

// Search searches the sync repositories
func (pm *PackageManager) Search(ctx context.Context, term string) ([]core.Package, error) {
	out, err := pm.output(ctx, flagSearch, term)
	// -Ss exits 1 when nothing matches
	if err != nil && core.ExitCode(err) != 1 {
		return nil, fmt.Errorf("searching for %s: %w", term, err)
	}
	return ParseSearch(out), nil
}

// IsInstalled checks a single package
func (pm *PackageManager) IsInstalled(ctx context.Context, name string) (bool, error) {
	path, err := runner.Resolve(pm.config.LookPath, Binary)
	if err != nil {
		return false, err
	}
	cmd := runner.Command{Path: path, Args: []string{flagQuery, name}, Env: env}
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
