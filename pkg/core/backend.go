package core

import (
	"fmt"
	"strings"
)

// BackendType identifies a supported package manager
type BackendType string

const (
	// BackendPacman uses the Arch Linux package manager
	BackendPacman BackendType = "pacman"
	// BackendApt uses the Debian/Ubuntu package manager
	BackendApt BackendType = "apt"
	// BackendYum uses the legacy RHEL/CentOS package manager
	BackendYum BackendType = "yum"
	// BackendDnf uses the Fedora/RHEL package manager
	BackendDnf BackendType = "dnf"
	// BackendFlatpak uses Flatpak application bundles
	BackendFlatpak BackendType = "flatpak"
)

// AllBackends lists every supported backend in detection order
var AllBackends = []BackendType{
	BackendApt,
	BackendDnf,
	BackendYum,
	BackendPacman,
	BackendFlatpak,
}

// ParseBackend converts a user supplied name into a BackendType
func ParseBackend(name string) (BackendType, error) {
	b := BackendType(strings.ToLower(strings.TrimSpace(name)))
	if !b.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, name)
	}
	return b, nil
}

// Valid reports whether b is one of the supported backends
func (b BackendType) Valid() bool {
	switch b {
	case BackendPacman, BackendApt, BackendYum, BackendDnf, BackendFlatpak:
		return true
	}
	return false
}

// Native reports whether b manages the distribution's own packages
func (b BackendType) Native() bool {
	return b.Valid() && b != BackendFlatpak
}

func (b BackendType) String() string {
	return string(b)
}
