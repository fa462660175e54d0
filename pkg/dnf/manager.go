// pkg/dnf/manager.go
package dnf

import (
	"context"
	"fmt"

	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

var logger = loggo.GetLogger("pkgdesk.dnf")

// NewPackageManager creates a dnf backend, or a yum backend when cfg.Binary is "yum"
func NewPackageManager(cfg *Config) *PackageManager {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Binary == "" {
		cfg.Binary = BinaryDnf
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
	if pm.config.Binary == BinaryYum {
		return core.BackendYum
	}
	return core.BackendDnf
}

// Binary returns the program this backend drives
func (pm *PackageManager) Binary() string {
	return pm.config.Binary
}

// Available checks that the binary is installed
func (pm *PackageManager) Available() error {
	_, err := runner.Resolve(pm.config.LookPath, pm.config.Binary)
	return err
}

// Command builds the invocation for req. Everything except query needs root.
func (pm *PackageManager) Command(req core.Request) (runner.Command, bool, error) {
	path, err := runner.Resolve(pm.config.LookPath, pm.config.Binary)
	if err != nil {
		return runner.Command{}, false, err
	}

	var args []string
	switch req.Action {
	case core.ActionInstall:
		args = []string{"install", "-y", req.Package}
	case core.ActionRemove:
		args = []string{"remove", "-y", req.Package}
	case core.ActionUpdate:
		args = []string{pm.upgradeVerb(), "-y"}
		if !req.UpdatesAll() {
			args = append(args, req.Package)
		}
	case core.ActionQuery:
		args = []string{"info", req.Package}
	default:
		return runner.Command{}, false, fmt.Errorf("%w: %q", core.ErrUnsupportedAction, req.Action)
	}

	return runner.Command{Path: path, Args: args, Env: env}, req.Action.Mutates(), nil
}

// upgradeVerb is "upgrade" for dnf and "update" for yum
func (pm *PackageManager) upgradeVerb() string {
	if pm.config.Binary == BinaryYum {
		return "update"
	}
	return "upgrade"
}

// Installed lists installed packages from the rpm database
func (pm *PackageManager) Installed(ctx context.Context) ([]core.Package, error) {
	out, err := pm.output(ctx, BinaryRpm, "-qa", "--queryformat", installedFormat)
	if err != nil {
		return nil, fmt.Errorf("listing installed packages: %w", err)
	}
	packages := ParseInstalled(out, pm.Name())
	logger.Debugf("%d installed packages", len(packages))
	return packages, nil
}

// Updates lists available updates. check-update exits 100 when there are any.
func (pm *PackageManager) Updates(ctx context.Context) ([]core.Package, error) {
	out, err := pm.output(ctx, pm.config.Binary, "check-update", "-q")
	if err != nil && core.ExitCode(err) != checkUpdateAvailable {
		return nil, fmt.Errorf("listing updates: %w", err)
	}
	return ParseCheckUpdate(out, pm.Name()), nil
}

// Search searches package names and summaries
func (pm *PackageManager) Search(ctx context.Context, term string) ([]core.Package, error) {
	out, err := pm.output(ctx, pm.config.Binary, "search", "-q", term)
	// No matches exits 1
	if err != nil && core.ExitCode(err) != 1 {
		return nil, fmt.Errorf("searching for %s: %w", term, err)
	}
	return ParseSearch(out, pm.Name()), nil
}

// IsInstalled checks a single package with rpm -q
func (pm *PackageManager) IsInstalled(ctx context.Context, name string) (bool, error) {
	path, err := runner.Resolve(pm.config.LookPath, BinaryRpm)
	if err != nil {
		return false, err
	}
	cmd := runner.Command{Path: path, Args: []string{"-q", name}, Env: env}
	return runner.Succeeds(ctx, pm.config.Runner, pm.config.Timeout, cmd)
}

func (pm *PackageManager) output(ctx context.Context, binary string, args ...string) (string, error) {
	path, err := runner.Resolve(pm.config.LookPath, binary)
	if err != nil {
		return "", err
	}
	cmd := runner.Command{Path: path, Args: args, Env: env}
	return runner.OutputWithin(ctx, pm.config.Runner, pm.config.Timeout, cmd)
}
