// pkg/core/interface.go
package core

import "context"

// PackageSource is the read-only side of a backend used for listings
type PackageSource interface {
	// Name returns the backend identifier
	Name() BackendType

	// Installed lists installed packages
	Installed(ctx context.Context) ([]Package, error)

	// Updates lists packages with a newer version available
	Updates(ctx context.Context) ([]Package, error)

	// Search searches the backend's repositories
	Search(ctx context.Context, term string) ([]Package, error)

	// IsInstalled checks a single package
	IsInstalled(ctx context.Context, name string) (bool, error)
}
