package platform

import (
	"os/exec"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/pkgdesk/pkg/core"
)

func lookPath(available ...string) func(string) (string, error) {
	return func(file string) (string, error) {
		for _, a := range available {
			if a == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func osRelease(content string) fstest.MapFS {
	return fstest.MapFS{"etc/os-release": &fstest.MapFile{Data: []byte(content)}}
}

func TestDetectWith(t *testing.T) {
	var tests = []struct {
		name          string
		root          fstest.MapFS
		binaries      []string
		wantDistro    string
		wantAvailable []core.BackendType
		wantPreferred core.BackendType
	}{
		{
			name:          "arch",
			root:          osRelease("NAME=\"Arch Linux\"\nID=arch\n"),
			binaries:      []string{"pacman", "flatpak"},
			wantDistro:    "arch",
			wantAvailable: []core.BackendType{core.BackendPacman, core.BackendFlatpak},
			wantPreferred: core.BackendPacman,
		},
		{
			name:          "ubuntu derivative via ID_LIKE",
			root:          osRelease("ID=neon\nID_LIKE=\"ubuntu debian\"\n"),
			binaries:      []string{"apt-get", "flatpak"},
			wantDistro:    "neon",
			wantAvailable: []core.BackendType{core.BackendApt, core.BackendFlatpak},
			wantPreferred: core.BackendApt,
		},
		{
			name:          "fedora prefers dnf over yum",
			root:          osRelease("ID=fedora\n"),
			binaries:      []string{"yum", "dnf"},
			wantDistro:    "fedora",
			wantAvailable: []core.BackendType{core.BackendDnf, core.BackendYum},
			wantPreferred: core.BackendDnf,
		},
		{
			name:          "old centos only has yum",
			root:          osRelease("ID=\"centos\"\nID_LIKE=\"rhel fedora\"\n"),
			binaries:      []string{"yum"},
			wantDistro:    "centos",
			wantAvailable: []core.BackendType{core.BackendYum},
			wantPreferred: core.BackendYum,
		},
		{
			name:          "unknown distro uses fallback order",
			root:          fstest.MapFS{"usr/lib/os-release": &fstest.MapFile{Data: []byte("ID=mystery\n")}},
			binaries:      []string{"pacman", "dnf"},
			wantDistro:    "mystery",
			wantAvailable: []core.BackendType{core.BackendDnf, core.BackendPacman},
			wantPreferred: core.BackendDnf,
		},
		{
			name:          "flatpak only is not a native preference",
			root:          fstest.MapFS{},
			binaries:      []string{"flatpak"},
			wantAvailable: []core.BackendType{core.BackendFlatpak},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DetectWith(Options{Root: tt.root, LookPath: lookPath(tt.binaries...)})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDistro, p.DistroID)
			assert.Equal(t, tt.wantAvailable, p.Available)
			assert.Equal(t, tt.wantPreferred, p.Preferred)
		})
	}
}

func TestResolveBackend(t *testing.T) {
	p := &Platform{
		Available: []core.BackendType{core.BackendApt, core.BackendFlatpak},
		Preferred: core.BackendApt,
	}

	b, err := ResolveBackend(p, core.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, core.BackendApt, b)

	cfg := core.DefaultConfig()
	cfg.DefaultBackend = "flatpak"
	b, err = ResolveBackend(p, cfg)
	require.NoError(t, err)
	assert.Equal(t, core.BackendFlatpak, b)

	cfg.DefaultBackend = "pacman"
	_, err = ResolveBackend(p, cfg)
	assert.ErrorIs(t, err, core.ErrBackendNotAvailable)

	_, err = ResolveBackend(&Platform{}, core.DefaultConfig())
	assert.ErrorIs(t, err, core.ErrBackendNotAvailable)
}

func TestEnabled(t *testing.T) {
	p := &Platform{Available: []core.BackendType{core.BackendApt, core.BackendFlatpak}}

	assert.Equal(t, p.Available, Enabled(p, core.DefaultConfig()))

	cfg := core.DefaultConfig()
	cfg.Backends = []string{"flatpak", "pacman"}
	assert.Equal(t, []core.BackendType{core.BackendFlatpak}, Enabled(p, cfg))
}
