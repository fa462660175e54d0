// pkg/backend/types.go
package backend

import (
	"time"

	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

// Backend defines the interface that all package manager backends must implement
type Backend interface {
	core.PackageSource

	// Binary returns the program used for mutating operations
	Binary() string

	// Command builds the process invocation for req and reports whether it needs root
	Command(req core.Request) (cmd runner.Command, needsRoot bool, err error)

	// Available reports core.ErrBinaryNotFound when the backend is not installed
	Available() error
}

// Config holds what every backend needs
type Config struct {
	// Runner executes listing commands
	Runner runner.Runner

	// LookPath resolves binaries, defaults to exec.LookPath
	LookPath runner.LookPathFunc

	// Timeout bounds listing commands
	Timeout time.Duration

	// FlatpakRemote is the remote applications are installed from
	FlatpakRemote string

	// FlatpakUser installs applications per user
	FlatpakUser bool
}

// ConfigFrom derives a backend Config from the application config
func ConfigFrom(cfg *core.Config, r runner.Runner) *Config {
	return &Config{
		Runner:        r,
		Timeout:       cfg.QueryTimeout,
		FlatpakRemote: cfg.Flatpak.Remote,
		FlatpakUser:   cfg.Flatpak.User,
	}
}
