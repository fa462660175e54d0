// pkg/registry/registry.go
package registry

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/arc-language/pkgdesk/pkg/core"
)

// Dir is the registry directory name inside the cache and the index repository
const Dir = "registry"

// ErrNotFound is returned by Load for unknown names
var ErrNotFound = errors.New("registry: package not found")

//go:embed defaults
var defaults embed.FS

// Entry represents a single <name>/index.toml file
type Entry struct {
	Name        string            `toml:"name"`
	Description string            `toml:"description"`
	Icon        string            `toml:"icon"`
	Featured    bool              `toml:"featured"`
	Backends    map[string]string `toml:"backends"` // backend -> package ID
}

// PackageFor returns the package ID for backend b, if the entry has one
func (e *Entry) PackageFor(b core.BackendType) (string, bool) {
	id, ok := e.Backends[string(b)]
	return id, ok && id != ""
}

// Registry provides lookup into the synced registry with the built-in
// entries as fallback
type Registry struct {
	sources []fs.FS
	icons   sync.Map // lowercase name -> icon class
}

// New creates a Registry reading <cacheDir>/registry first, then the
// entries compiled into the binary
func New(cacheDir string) *Registry {
	var sources []fs.FS
	if cacheDir != "" {
		// May not exist until the first index sync
		sources = append(sources, os.DirFS(filepath.Join(cacheDir, Dir)))
	}
	sources = append(sources, Defaults())
	return &Registry{sources: sources}
}

// NewFromFS creates a Registry over the given sources, earliest first
func NewFromFS(sources ...fs.FS) *Registry {
	return &Registry{sources: sources}
}

// Defaults returns the built-in entries
func Defaults() fs.FS {
	sub, err := fs.Sub(defaults, "defaults")
	if err != nil {
		panic(err) // the embed directive guarantees the directory
	}
	return sub
}

// Resolve takes a canonical package name and a backend,
// returns the backend-specific package name.
// Names without an entry, or without a mapping for b, resolve to themselves.
// e.g. Resolve("firefox", "flatpak") -> "org.mozilla.firefox"
func (r *Registry) Resolve(name string, b core.BackendType) string {
	entry, err := r.Load(name)
	if err != nil {
		return name
	}
	if id, ok := entry.PackageFor(b); ok {
		return id
	}
	return name
}

// Load reads and parses <name>/index.toml from the first source that has it
func (r *Registry) Load(name string) (*Entry, error) {
	if name == "" || !fs.ValidPath(name) || path.Base(name) != name {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	file := path.Join(name, "index.toml")
	for _, src := range r.sources {
		entry, err := decode(src, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if entry.Name == "" {
			entry.Name = name
		}
		return entry, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Entries returns every entry from every source. An entry in an earlier
// source hides one with the same directory name in a later source.
func (r *Registry) Entries() ([]*Entry, error) {
	seen := make(map[string]bool)
	var entries []*Entry

	for _, src := range r.sources {
		dirs, err := fs.ReadDir(src, ".")
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("registry: listing entries: %w", err)
		}
		for _, d := range dirs {
			if !d.IsDir() || seen[d.Name()] {
				continue
			}
			entry, err := decode(src, path.Join(d.Name(), "index.toml"))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if entry.Name == "" {
				entry.Name = d.Name()
			}
			seen[d.Name()] = true
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Featured returns the entries marked featured, sorted by name
func (r *Registry) Featured() ([]*Entry, error) {
	all, err := r.Entries()
	if err != nil {
		return nil, err
	}
	var featured []*Entry
	for _, e := range all {
		if e.Featured {
			featured = append(featured, e)
		}
	}
	return featured, nil
}

func decode(src fs.FS, file string) (*Entry, error) {
	var entry Entry
	if _, err := toml.DecodeFS(src, file, &entry); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("registry: failed to parse %s: %w", file, err)
	}
	return &entry, nil
}
