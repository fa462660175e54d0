// pkg/dnf/types.go
package dnf

import (
	"time"

	"github.com/arc-language/pkgdesk/pkg/runner"
)

// Config configures the dnf/yum backend
type Config struct {
	Binary   string              // dnf or yum; default dnf
	Runner   runner.Runner       // Process runner (required)
	LookPath runner.LookPathFunc // Binary lookup, defaults to exec.LookPath
	Timeout  time.Duration       // Bound on listing commands
}

// PackageManager drives dnf or yum. Both share rpm for installed state.
type PackageManager struct {
	config *Config
}
