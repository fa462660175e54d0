// pkg/platform/resolver.go
package platform

import (
	"fmt"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// ResolveBackend resolves which backend to use based on platform and config
func ResolveBackend(platform *Platform, config *core.Config) (core.BackendType, error) {
	// Priority:
	// 1. User-specified backend in config
	// 2. Platform preferred backend
	// 3. First available backend
	var backend core.BackendType
	switch {
	case config != nil && config.DefaultBackend != "":
		b, err := core.ParseBackend(config.DefaultBackend)
		if err != nil {
			return "", err
		}
		backend = b
	case platform.Preferred != "":
		backend = platform.Preferred
	case len(platform.Available) > 0:
		backend = platform.Available[0]
	default:
		return "", fmt.Errorf("%w: no package managers found", core.ErrBackendNotAvailable)
	}

	if !platform.Has(backend) {
		return "", fmt.Errorf("%w: %s is not installed on this system", core.ErrBackendNotAvailable, backend)
	}
	return backend, nil
}

// Enabled intersects the configured backend list with the available ones.
// An empty configuration enables everything available.
func Enabled(platform *Platform, config *core.Config) []core.BackendType {
	wanted := config.EnabledBackends()
	if len(wanted) == 0 {
		return append([]core.BackendType(nil), platform.Available...)
	}

	var out []core.BackendType
	for _, b := range wanted {
		if platform.Has(b) {
			out = append(out, b)
		} else {
			logger.Warningf("backend %s is enabled but not installed", b)
		}
	}
	return out
}
