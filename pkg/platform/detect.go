// pkg/platform/detect.go
package platform

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/apt"
	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/dnf"
	"github.com/arc-language/pkgdesk/pkg/pacman"
	"github.com/arc-language/pkgdesk/pkg/runner"
)

var logger = loggo.GetLogger("pkgdesk.platform")

// osReleasePaths are tried in order, relative to the root filesystem
var osReleasePaths = []string{"etc/os-release", "usr/lib/os-release"}

// fallbackOrder is used when the distribution is not recognised
var fallbackOrder = []core.BackendType{core.BackendApt, core.BackendDnf, core.BackendYum, core.BackendPacman}

// Platform represents the detected system platform
type Platform struct {
	OS         string             // linux
	Arch       string             // amd64, arm64, 386, arm
	DistroID   string             // os-release ID, e.g. "ubuntu"
	DistroLike []string           // os-release ID_LIKE
	Available  []core.BackendType // Backends whose binary is on PATH
	Preferred  core.BackendType   // Native backend for this distribution
}

// Options makes detection testable
type Options struct {
	Root     fs.FS               // Filesystem holding etc/os-release; defaults to /
	LookPath runner.LookPathFunc // Defaults to exec.LookPath
}

// Detect detects the current platform and available package managers
func Detect() (*Platform, error) {
	return DetectWith(Options{})
}

// DetectWith detects the platform using the given filesystem and lookup
func DetectWith(opts Options) (*Platform, error) {
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	if opts.Root == nil {
		opts.Root = os.DirFS("/")
	}

	p := &Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	// 1. Distribution
	fields, err := readOSRelease(opts.Root)
	if err != nil {
		logger.Debugf("no os-release: %v", err)
	}
	p.DistroID = fields["ID"]
	p.DistroLike = strings.Fields(fields["ID_LIKE"])

	// 2. Installed package managers
	for _, b := range core.AllBackends {
		if commandExists(opts.LookPath, backendBinary(b)) {
			p.Available = append(p.Available, b)
		}
	}

	// 3. Preferred native manager
	p.Preferred = p.preferred()

	logger.Debugf("detected %s", p)
	return p, nil
}

// preferred picks the distribution's native backend among the available ones
func (p *Platform) preferred() core.BackendType {
	ids := append([]string{p.DistroID}, p.DistroLike...)
	for _, id := range ids {
		for _, b := range candidatesFor(id) {
			if p.Has(b) {
				return b
			}
		}
	}
	for _, b := range fallbackOrder {
		if p.Has(b) {
			return b
		}
	}
	return ""
}

// candidatesFor maps an os-release ID to its native backends in preference order
func candidatesFor(id string) []core.BackendType {
	switch {
	case contains(pacman.DistroIDs, id):
		return []core.BackendType{core.BackendPacman}
	case contains(apt.DistroIDs, id):
		return []core.BackendType{core.BackendApt}
	case contains(dnf.DistroIDs, id):
		return []core.BackendType{core.BackendDnf, core.BackendYum}
	}
	return nil
}

// Has reports whether backend b was found on this system
func (p *Platform) Has(b core.BackendType) bool {
	for _, a := range p.Available {
		if a == b {
			return true
		}
	}
	return false
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s %s (available: %v, preferred: %s)",
		p.OS, p.Arch, p.DistroID, p.Available, p.Preferred)
}

// readOSRelease parses KEY=value pairs, unquoting values
func readOSRelease(root fs.FS) (map[string]string, error) {
	var lastErr error
	for _, name := range osReleasePaths {
		f, err := root.Open(name)
		if err != nil {
			lastErr = err
			continue
		}
		defer f.Close()

		fields := make(map[string]string)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			fields[key] = strings.ToLower(strings.Trim(value, `"'`))
		}
		return fields, scanner.Err()
	}
	return map[string]string{}, lastErr
}
