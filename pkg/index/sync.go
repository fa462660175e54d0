package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/juju/loggo"

	"github.com/arc-language/pkgdesk/pkg/registry"
)

var logger = loggo.GetLogger("pkgdesk.index")

const (
	RepoURL    = "https://github.com/arc-language/pkgdesk"
	RepoBranch = "main"
)

// Options configures Sync
type Options struct {
	URL      string    // Repository holding a registry/ directory; default RepoURL
	Branch   string    // Default RepoBranch
	CacheDir string    // Destination; the registry lands in <CacheDir>/registry
	Progress io.Writer // Clone progress output, may be nil
}

// Sync shallow-clones the index repository and replaces the cached registry.
// The previous registry is kept until the new one is fully copied.
func Sync(ctx context.Context, opts Options) error {
	if opts.URL == "" {
		opts.URL = RepoURL
	}
	if opts.Branch == "" {
		opts.Branch = RepoBranch
	}
	if opts.CacheDir == "" {
		return fmt.Errorf("no cache directory")
	}

	tempDir, err := os.MkdirTemp("", "pkgdesk-clone-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	logger.Infof("updating package index from %s (%s)", opts.URL, opts.Branch)

	// 1. Clone
	_, err = git.PlainCloneContext(ctx, tempDir, false, &git.CloneOptions{
		URL:           opts.URL,
		ReferenceName: plumbing.NewBranchReferenceName(opts.Branch),
		SingleBranch:  true,
		Depth:         1,
		Progress:      opts.Progress,
	})
	if err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}

	// 2. Stage the new registry next to the old one
	src := filepath.Join(tempDir, registry.Dir)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return fmt.Errorf("repository has no %s directory", registry.Dir)
	}
	if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	dst := filepath.Join(opts.CacheDir, registry.Dir)
	staging := dst + ".new"
	os.RemoveAll(staging)
	if err := copyDir(src, staging); err != nil {
		os.RemoveAll(staging)
		return fmt.Errorf("copying registry: %w", err)
	}

	// 3. Swap
	if err := replaceDir(staging, dst); err != nil {
		return err
	}

	logger.Infof("package index updated")
	return nil
}

// replaceDir moves staging over dst
func replaceDir(staging, dst string) error {
	old := dst + ".old"
	os.RemoveAll(old)
	if err := os.Rename(dst, old); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("moving old registry aside: %w", err)
	}
	if err := os.Rename(staging, dst); err != nil {
		os.Rename(old, dst)
		return fmt.Errorf("installing new registry: %w", err)
	}
	os.RemoveAll(old)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}
