// pkg/apt/manager.go
package apt

import (
	"context"
	"errors"
	"fmt"

	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

var logger = loggo.GetLogger("pkgdesk.apt")

// NewPackageManager creates an apt backend
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
	return core.BackendApt
}

// Binary returns the program used for mutating operations
func (pm *PackageManager) Binary() string {
	return Binary
}

// Available checks that apt-get is installed
func (pm *PackageManager) Available() error {
	_, err := runner.Resolve(pm.config.LookPath, Binary)
	return err
}

// Command builds the invocation for req. Queries go through apt-cache and
// need no privileges; everything else runs apt-get as root.
func (pm *PackageManager) Command(req core.Request) (runner.Command, bool, error) {
	binary := Binary
	var args []string

	switch req.Action {
	case core.ActionInstall:
		args = []string{"install", "-y", req.Package}
	case core.ActionRemove:
		args = []string{"remove", "-y", req.Package}
	case core.ActionUpdate:
		if req.UpdatesAll() {
			args = []string{"upgrade", "-y"}
		} else {
			args = []string{"install", "--only-upgrade", "-y", req.Package}
		}
	case core.ActionQuery:
		binary = BinaryCache
		args = []string{"show", req.Package}
	default:
		return runner.Command{}, false, fmt.Errorf("%w: %q", core.ErrUnsupportedAction, req.Action)
	}

	path, err := runner.Resolve(pm.config.LookPath, binary)
	if err != nil {
		return runner.Command{}, false, err
	}
	return runner.Command{Path: path, Args: args, Env: env}, req.Action.Mutates(), nil
}

// Installed lists installed packages
func (pm *PackageManager) Installed(ctx context.Context) ([]core.Package, error) {
	out, err := pm.output(ctx, BinaryDpkgQuery, "-W", "-f="+installedFormat)
	if err != nil {
		return nil, fmt.Errorf("listing installed packages: %w", err)
	}
	packages := ParseInstalled(out)
	logger.Debugf("%d installed packages", len(packages))
	return packages, nil
}

// Updates lists upgradable packages from the local package lists
func (pm *PackageManager) Updates(ctx context.Context) ([]core.Package, error) {
	out, err := pm.output(ctx, BinaryList, "list", "--upgradable")
	if err != nil {
		return nil, fmt.Errorf("listing updates: %w", err)
	}
	return ParseUpgradable(out), nil
}

// Search searches package names and descriptions
func (pm *PackageManager) Search(ctx context.Context, term string) ([]core.Package, error) {
	out, err := pm.output(ctx, BinaryCache, "search", term)
	if err != nil {
		return nil, fmt.Errorf("searching for %s: %w", term, err)
	}
	return ParseSearch(out), nil
}

// IsInstalled checks a single package with dpkg -s
func (pm *PackageManager) IsInstalled(ctx context.Context, name string) (bool, error) {
	out, err := pm.output(ctx, BinaryDpkg, "-s", name)
	if err != nil {
		// dpkg -s exits 1 for unknown packages
		var exitErr *core.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, err
	}
	return IsInstalledStatus(out), nil
}

func (pm *PackageManager) output(ctx context.Context, binary string, args ...string) (string, error) {
	path, err := runner.Resolve(pm.config.LookPath, binary)
	if err != nil {
		return "", err
	}
	cmd := runner.Command{Path: path, Args: args, Env: env}
	return runner.OutputWithin(ctx, pm.config.Runner, pm.config.Timeout, cmd)
}
