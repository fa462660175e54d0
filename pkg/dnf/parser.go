package dnf

import (
	"bufio"
	"strings"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// ParseInstalled parses rpm -qa rows produced with installedFormat
func ParseInstalled(out string, source core.BackendType) []core.Package {
	var packages []core.Package

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		cols := strings.SplitN(scanner.Text(), "\t", 3)
		if len(cols) < 2 || cols[0] == "" || cols[0] == gpgPubkey {
			continue
		}
		pkg := core.Package{
			Name:      cols[0],
			Version:   cols[1],
			Source:    source,
			Installed: true,
		}
		if len(cols) == 3 {
			pkg.Description = cols[2]
		}
		packages = append(packages, pkg)
	}

	return packages
}

// ParseCheckUpdate parses `check-update -q`:
//
//	vim-enhanced.x86_64    2:9.1.031-1.fc39    updates
//
// Parsing stops at the "Obsoleting Packages" section.
func ParseCheckUpdate(out string, source core.BackendType) []core.Package {
	var packages []core.Package

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "Obsoleting") {
			break
		}
		fields := strings.Fields(line)
		if len(fields) != 3 || line[0] == ' ' {
			continue
		}
		packages = append(packages, core.Package{
			Name:       stripArch(fields[0]),
			NewVersion: fields[1],
			Source:     source,
			Installed:  true,
		})
	}

	return packages
}

// ParseSearch parses `search -q` output. Both the classic
// "name.arch : summary" form and the tab separated dnf5 form are accepted;
// section banners are skipped.
func ParseSearch(out string, source core.BackendType) []core.Package {
	var packages []core.Package
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "=") || strings.HasPrefix(line, "Matched fields") {
			continue
		}

		name, summary, ok := strings.Cut(line, " : ")
		if !ok {
			name, summary, ok = strings.Cut(line, "\t")
		}
		if !ok {
			continue
		}
		name = stripArch(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		packages = append(packages, core.Package{
			Name:        name,
			Description: strings.TrimSpace(summary),
			Source:      source,
		})
	}

	return packages
}

// stripArch removes the trailing ".arch" from an rpm NEVRA name
func stripArch(s string) string {
	if i := strings.LastIndex(s, "."); i > 0 {
		return s[:i]
	}
	return s
}
