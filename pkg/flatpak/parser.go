package flatpak

import (
	"bufio"
	"strings"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// ParseColumns parses tab separated flatpak listings whose first column is
// the application ID, followed by version and, optionally, description.
// A header row, if the client printed one, is skipped.
func ParseColumns(out string, installed bool) []core.Package {
	var packages []core.Package

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == noMatches {
			continue
		}
		cols := strings.Split(line, "\t")
		id := strings.TrimSpace(cols[0])
		if id == "" || isHeader(id) || !strings.Contains(id, ".") {
			continue
		}

		pkg := core.Package{
			Name:      core.DisplayName(id),
			RawName:   id,
			Source:    core.BackendFlatpak,
			Installed: installed,
		}
		if len(cols) > 1 {
			pkg.Version = strings.TrimSpace(cols[1])
		}
		if len(cols) > 2 {
			pkg.Description = strings.TrimSpace(cols[2])
		}
		packages = append(packages, pkg)
	}

	return packages
}

// ParseUpdates parses `remote-ls --updates`; the version column is the new version
func ParseUpdates(out string) []core.Package {
	packages := ParseColumns(out, true)
	for i := range packages {
		packages[i].NewVersion = packages[i].Version
		packages[i].Version = ""
	}
	return packages
}

func isHeader(col string) bool {
	return strings.EqualFold(col, "Application ID") || strings.EqualFold(col, "Application")
}
