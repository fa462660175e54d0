// pkg/platform/utils.go
package platform

import (
	"os/exec"

	"github.com/arc-language/pkgdesk/pkg/apt"
	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/dnf"
	"github.com/arc-language/pkgdesk/pkg/flatpak"
	"github.com/arc-language/pkgdesk/pkg/pacman"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

// commandExists checks if a command is available in PATH
func commandExists(lookPath runner.LookPathFunc, cmd string) bool {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(cmd)
	return err == nil
}

// backendBinary returns the program whose presence marks b as installed
func backendBinary(b core.BackendType) string {
	switch b {
	case core.BackendPacman:
		return pacman.Binary
	case core.BackendApt:
		return apt.Binary
	case core.BackendDnf:
		return dnf.BinaryDnf
	case core.BackendYum:
		return dnf.BinaryYum
	case core.BackendFlatpak:
		return flatpak.Binary
	}
	return string(b)
}

// contains checks if a string slice contains a value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
