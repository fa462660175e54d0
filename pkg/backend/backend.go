// pkg/backend/backend.go
package backend

import (
	"fmt"

	"github.com/arc-language/pkgdesk/pkg/apt"
	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/dnf"
	"github.com/arc-language/pkgdesk/pkg/flatpak"
	"github.com/arc-language/pkgdesk/pkg/pacman"
)

var (
	_ Backend = (*pacman.PackageManager)(nil)
	_ Backend = (*apt.PackageManager)(nil)
	_ Backend = (*dnf.PackageManager)(nil)
	_ Backend = (*flatpak.PackageManager)(nil)
)

// New creates the backend for t. Every supported type has exactly one handler.
func New(t core.BackendType, cfg *Config) (Backend, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	switch t {
	case core.BackendPacman:
		return pacman.NewPackageManager(&pacman.Config{
			Runner:   cfg.Runner,
			LookPath: cfg.LookPath,
			Timeout:  cfg.Timeout,
		}), nil
	case core.BackendApt:
		return apt.NewPackageManager(&apt.Config{
			Runner:   cfg.Runner,
			LookPath: cfg.LookPath,
			Timeout:  cfg.Timeout,
		}), nil
	case core.BackendDnf, core.BackendYum:
		binary := dnf.BinaryDnf
		if t == core.BackendYum {
			binary = dnf.BinaryYum
		}
		return dnf.NewPackageManager(&dnf.Config{
			Binary:   binary,
			Runner:   cfg.Runner,
			LookPath: cfg.LookPath,
			Timeout:  cfg.Timeout,
		}), nil
	case core.BackendFlatpak:
		return flatpak.NewPackageManager(&flatpak.Config{
			Remote:   cfg.FlatpakRemote,
			User:     cfg.FlatpakUser,
			Runner:   cfg.Runner,
			LookPath: cfg.LookPath,
			Timeout:  cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedBackend, t)
	}
}

// NewAll creates one backend per type in types, or for every supported
// type when types is empty.
func NewAll(types []core.BackendType, cfg *Config) (map[core.BackendType]Backend, error) {
	if len(types) == 0 {
		types = core.AllBackends
	}
	backends := make(map[core.BackendType]Backend, len(types))
	for _, t := range types {
		b, err := New(t, cfg)
		if err != nil {
			return nil, err
		}
		backends[t] = b
	}
	return backends, nil
}
