// pkg/core/package.go
package core

import "strings"

// Package represents a listing entry from any backend
type Package struct {
	Name        string      `json:"name"`                  // Display name
	RawName     string      `json:"raw_name,omitempty"`    // Backend identifier when it differs (flatpak app ID)
	Version     string      `json:"version"`               // Installed or available version
	NewVersion  string      `json:"new_version,omitempty"` // Version an update would bring
	Description string      `json:"description"`
	Source      BackendType `json:"source"` // Which backend manages this package
	Icon        string      `json:"icon,omitempty"`
	Installed   bool        `json:"installed"`
}

// ID returns the identifier to pass to the backend
func (p Package) ID() string {
	if p.RawName != "" {
		return p.RawName
	}
	return p.Name
}

// DisplayName shortens reverse-DNS application IDs to their last segment
func DisplayName(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}
