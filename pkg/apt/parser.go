package apt

import (
	"bufio"
	"strings"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// ParseInstalled parses dpkg-query rows produced with installedFormat.
// Rows whose status is not "ii" (removed, config-files only) are skipped.
func ParseInstalled(out string) []core.Package {
	var packages []core.Package

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		cols := strings.Split(scanner.Text(), "\t")
		if len(cols) < 3 || !strings.HasPrefix(cols[0], "ii") {
			continue
		}
		pkg := core.Package{
			Name:      cols[1],
			Version:   cols[2],
			Source:    core.BackendApt,
			Installed: true,
		}
		if len(cols) > 3 {
			pkg.Description = cols[3]
		}
		packages = append(packages, pkg)
	}

	return packages
}

// ParseUpgradable parses `apt list --upgradable`:
//
//	vim/jammy-updates 2:8.2.3995-1ubuntu2.16 amd64 [upgradable from: 2:8.2.3995-1ubuntu2.15]
func ParseUpgradable(out string) []core.Package {
	var packages []core.Package

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.Contains(fields[0], "/") {
			continue // "Listing..." header and warnings
		}
		name, _, _ := strings.Cut(fields[0], "/")

		pkg := core.Package{
			Name:       name,
			NewVersion: fields[1],
			Source:     core.BackendApt,
			Installed:  true,
		}
		if i := strings.Index(line, upgradableMarker); i >= 0 {
			pkg.Version = strings.TrimSuffix(line[i+len(upgradableMarker):], "]")
		}
		packages = append(packages, pkg)
	}

	return packages
}

// ParseSearch parses `apt-cache search` lines of the form "name - description"
func ParseSearch(out string) []core.Package {
	var packages []core.Package

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		name, desc, ok := strings.Cut(scanner.Text(), " - ")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		packages = append(packages, core.Package{
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(desc),
			Source:      core.BackendApt,
		})
	}

	return packages
}

// IsInstalledStatus reports whether `dpkg -s` output describes an installed package
func IsInstalledStatus(out string) bool {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if key, value, ok := strings.Cut(scanner.Text(), ":"); ok && key == "Status" {
			return strings.TrimSpace(value) == installedStatus
		}
	}
	return false
}
