// Package catalog aggregates package listings across backends.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/juju/loggo"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/patrickmn/go-cache"

	"github.com/arc-language/pkgdesk/pkg/core"
	"github.com/arc-language/pkgdesk/pkg/registry"
)

var logger = loggo.GetLogger("pkgdesk.catalog")

// Scope selects what Search looks through
type Scope string

const (
	ScopeInstalled Scope = "installed"
	ScopeExplore   Scope = "explore"
)

// Match modes
const (
	MatchContains = "contains"
	MatchFuzzy    = "fuzzy"
)

const (
	DefaultTTL = 5 * time.Minute

	keyInstalled = "installed"
	keyUpdates   = "updates"
	keyExplore   = "explore"
	keySearch    = "search:"
)

// ErrInvalidScope is returned by Search for scopes other than installed and explore
var ErrInvalidScope = errors.New("invalid search scope")

// ParseScope validates a scope name; empty means installed
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return ScopeInstalled, nil
	case ScopeInstalled, ScopeExplore:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// Options configures a Catalog
type Options struct {
	Sources  []core.PackageSource // Queried in order; later sources win explore de-duplication
	Registry *registry.Registry   // Featured entries and icons; built-in entries when nil
	TTL      time.Duration        // Result cache lifetime; negative disables caching
	Match    string               // contains or fuzzy
}

// Catalog answers listing and search requests from the UI
type Catalog struct {
	sources  []core.PackageSource
	registry *registry.Registry
	cache    *cache.Cache
	nocache  bool
	fuzzy    bool
}

// New creates a catalog over the given sources
func New(opts Options) *Catalog {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	reg := opts.Registry
	if reg == nil {
		reg = registry.NewFromFS(registry.Defaults())
	}
	return &Catalog{
		sources:  opts.Sources,
		registry: reg,
		cache:    cache.New(ttl, 2*ttl),
		nocache:  ttl < 0,
		fuzzy:    opts.Match == MatchFuzzy,
	}
}

// Sources returns the backends this catalog reads from
func (c *Catalog) Sources() []core.BackendType {
	out := make([]core.BackendType, 0, len(c.sources))
	for _, s := range c.sources {
		out = append(out, s.Name())
	}
	return out
}

// Installed lists installed packages of every source
func (c *Catalog) Installed(ctx context.Context) ([]core.Package, error) {
	return c.cached(keyInstalled, func() ([]core.Package, error) {
		return c.gather(ctx, "installed", func(src core.PackageSource) ([]core.Package, error) {
			return src.Installed(ctx)
		})
	})
}

// Updates lists pending updates of every source
func (c *Catalog) Updates(ctx context.Context) ([]core.Package, error) {
	return c.cached(keyUpdates, func() ([]core.Package, error) {
		return c.gather(ctx, "updates", func(src core.PackageSource) ([]core.Package, error) {
			return src.Updates(ctx)
		})
	})
}

// Explore lists the featured applications, each resolved to the first
// source that carries it and flagged when already installed
func (c *Catalog) Explore(ctx context.Context) ([]core.Package, error) {
	return c.cached(keyExplore, func() ([]core.Package, error) {
		featured, err := c.registry.Featured()
		if err != nil {
			return nil, err
		}

		installed, err := c.Installed(ctx)
		if err != nil {
			logger.Warningf("explore without installed state: %v", err)
		}
		have := make(map[string]bool, len(installed))
		for _, p := range installed {
			have[string(p.Source)+"/"+p.ID()] = true
		}

		var packages []core.Package
		for _, entry := range featured {
			for _, src := range c.sources {
				id, ok := entry.PackageFor(src.Name())
				if !ok {
					continue
				}
				pkg := core.Package{
					Name:        entry.Name,
					Description: entry.Description,
					Source:      src.Name(),
					Icon:        entry.Icon,
					Installed:   have[string(src.Name())+"/"+id],
				}
				if id != entry.Name {
					pkg.RawName = id
				}
				if pkg.Icon == "" {
					pkg.Icon = registry.Icon(entry.Name)
				}
				packages = append(packages, pkg)
				break
			}
		}
		return packages, nil
	})
}

// Search filters installed packages or searches the repositories of every
// source, depending on scope
func (c *Catalog) Search(ctx context.Context, term string, scope Scope) ([]core.Package, error) {
	term = strings.TrimSpace(term)

	switch scope {
	case ScopeInstalled:
		installed, err := c.Installed(ctx)
		if err != nil {
			return nil, err
		}
		return c.filter(installed, term), nil
	case ScopeExplore:
		if term == "" {
			return c.Explore(ctx)
		}
		found, err := c.cached(keySearch+strings.ToLower(term), func() ([]core.Package, error) {
			all, err := c.gather(ctx, "search", func(src core.PackageSource) ([]core.Package, error) {
				return src.Search(ctx, term)
			})
			if err != nil {
				return nil, err
			}
			return dedupe(all), nil
		})
		if err != nil {
			return nil, err
		}
		return c.filter(found, term), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
}

// Invalidate drops every cached result; called after a package changed
func (c *Catalog) Invalidate() {
	c.cache.Flush()
	logger.Debugf("catalog cache flushed")
}

func (c *Catalog) cached(key string, load func() ([]core.Package, error)) ([]core.Package, error) {
	if c.nocache {
		return load()
	}
	if v, ok := c.cache.Get(key); ok {
		return clone(v.([]core.Package)), nil
	}
	packages, err := load()
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, packages)
	return clone(packages), nil
}

// gather runs fn on every source concurrently and concatenates the results
// in source order. A failing source is logged and skipped; an error is
// returned only when every source failed.
func (c *Catalog) gather(ctx context.Context, what string, fn func(core.PackageSource) ([]core.Package, error)) ([]core.Package, error) {
	results := make([][]core.Package, len(c.sources))
	errs := make([]error, len(c.sources))

	var wg sync.WaitGroup
	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src core.PackageSource) {
			defer wg.Done()
			results[i], errs[i] = fn(src)
		}(i, src)
	}
	wg.Wait()

	var packages []core.Package
	var failed []error
	for i, src := range c.sources {
		if errs[i] != nil {
			logger.Warningf("%s %s: %v", src.Name(), what, errs[i])
			failed = append(failed, fmt.Errorf("%s: %w", src.Name(), errs[i]))
			continue
		}
		for _, p := range results[i] {
			if p.Icon == "" {
				p.Icon = c.registry.IconFor(p.Name)
			}
			packages = append(packages, p)
		}
	}

	if len(c.sources) > 0 && len(failed) == len(c.sources) {
		return nil, errors.Join(failed...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return packages, nil
}

// filter keeps packages whose name or description matches term
func (c *Catalog) filter(packages []core.Package, term string) []core.Package {
	if term == "" {
		return packages
	}
	if c.fuzzy {
		return fuzzyFilter(packages, term)
	}

	needle := strings.ToLower(term)
	var out []core.Package
	for _, p := range packages {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

// fuzzyFilter ranks name matches by edit distance, then appends
// description-only substring matches
func fuzzyFilter(packages []core.Package, term string) []core.Package {
	names := make([]string, len(packages))
	for i, p := range packages {
		names[i] = p.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(term, names)
	sort.Stable(ranks)

	matched := make(map[int]bool, len(ranks))
	out := make([]core.Package, 0, len(ranks))
	for _, r := range ranks {
		matched[r.OriginalIndex] = true
		out = append(out, packages[r.OriginalIndex])
	}

	needle := strings.ToLower(term)
	for i, p := range packages {
		if !matched[i] && strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

// dedupe keeps one package per display name; later entries replace
// earlier ones but keep the earlier position
func dedupe(packages []core.Package) []core.Package {
	index := make(map[string]int, len(packages))
	var out []core.Package
	for _, p := range packages {
		if i, ok := index[p.Name]; ok {
			out[i] = p
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}

func clone(packages []core.Package) []core.Package {
	if packages == nil {
		return nil
	}
	return append([]core.Package(nil), packages...)
}
