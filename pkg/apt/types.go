// pkg/apt/types.go
package apt

import (
	"time"

	"github.com/arc-language/pkgdesk/pkg/runner"
)

// Config configures the apt backend
type Config struct {
	Runner   runner.Runner       // Process runner (required)
	LookPath runner.LookPathFunc // Binary lookup, defaults to exec.LookPath
	Timeout  time.Duration       // Bound on listing commands
}

// PackageManager drives apt-get and the dpkg tools
type PackageManager struct {
	config *Config
}
