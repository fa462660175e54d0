// pkg/flatpak/types.go
package flatpak

import (
	"time"

	"github.com/arc-language/pkgdesk/pkg/runner"
)

// Config configures the Flatpak backend
type Config struct {
	Remote   string              // Remote to install from; default flathub
	User     bool                // Per-user installation instead of system-wide
	Runner   runner.Runner       // Process runner (required)
	LookPath runner.LookPathFunc // Binary lookup, defaults to exec.LookPath
	Timeout  time.Duration       // Bound on listing commands
}

// PackageManager drives the flatpak client. Package names are application IDs.
type PackageManager struct {
	config *Config
}
