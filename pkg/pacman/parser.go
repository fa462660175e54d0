package pacman

import (
	"bufio"
	"strings"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// ParseInfo parses `pacman -Qi` output: one "Key : Value" block per
// package, blocks separated by blank lines.
func ParseInfo(out string) []core.Package {
	var packages []core.Package
	var current *core.Package

	flush := func() {
		if current != nil && current.Name != "" {
			packages = append(packages, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		// Continuation lines of multi-value fields are indented
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if current == nil {
			current = &core.Package{Source: core.BackendPacman, Installed: true}
		}
		switch key {
		case fieldName:
			current.Name = value
		case fieldVersion:
			current.Version = value
		case fieldDescription:
			current.Description = value
		}
	}
	flush()

	return packages
}

// ParseUpgrades parses `pacman -Qu` lines of the form "name old -> new"
func ParseUpgrades(out string) []core.Package {
	var packages []core.Package

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[2] != "->" {
			continue
		}
		packages = append(packages, core.Package{
			Name:       fields[0],
			Version:    fields[1],
			NewVersion: fields[3],
			Source:     core.BackendPacman,
			Installed:  true,
		})
	}

	return packages
}

// ParseSearch parses `pacman -Ss` output:
//
//	extra/vim 9.1.0-1 [installed]
//	    Vi Improved, a highly configurable, improved version of the vi text editor
func ParseSearch(out string) []core.Package {
	var packages []core.Package

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if n := len(packages); n > 0 && packages[n-1].Description == "" {
				packages[n-1].Description = strings.TrimSpace(line)
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		_, name, ok := strings.Cut(fields[0], "/")
		if !ok {
			name = fields[0]
		}
		packages = append(packages, core.Package{
			Name:      name,
			Version:   fields[1],
			Source:    core.BackendPacman,
			Installed: strings.Contains(line, "[installed"),
		})
	}

	return packages
}
