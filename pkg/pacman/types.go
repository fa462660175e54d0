// pkg/pacman/types.go
package pacman

import (
	"time"

	"github.com/arc-language/pkgdesk/pkg/runner"
)

// Config configures the pacman backend
type Config struct {
	Runner   runner.Runner       // Process runner (required)
	LookPath runner.LookPathFunc // Binary lookup, defaults to exec.LookPath
	Timeout  time.Duration       // Bound on listing commands
}

// PackageManager drives the pacman binary
type PackageManager struct {
	config *Config
}
