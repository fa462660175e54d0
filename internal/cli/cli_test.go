package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/pkgdesk/pkg/core"
)

func TestProgressRenderer(t *testing.T) {
	var out bytes.Buffer
	r := &progressRenderer{out: &out}

	r.Render(core.Event{Status: "Installing vim...", Progress: 0})
	r.Render(core.Event{Status: "Installing vim...", Progress: 5, Line: "resolving dependencies..."})
	r.Render(core.Event{Status: "Downloading...", Progress: 40, Line: "downloading vim"})
	r.Render(core.Event{Status: "Completed", Progress: 100, Done: true})

	assert.Equal(t, "  [  0%] Installing vim...\n  [ 40%] Downloading...\n", out.String())
}

func TestProgressRendererVerbose(t *testing.T) {
	var out bytes.Buffer
	r := &progressRenderer{out: &out, verbose: true}

	r.Render(core.Event{Status: "Downloading...", Progress: 40, Line: "downloading vim"})

	assert.Equal(t, "  | downloading vim\n  [ 40%] Downloading...\n", out.String())
}

func TestPrompter(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes ", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			confirm := prompter(strings.NewReader(tt.input), &out)

			ok, err := confirm(context.Background(), core.BackendPacman, "flatpak")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "flatpak is required but not installed")
		})
	}
}

func TestPrintPackages(t *testing.T) {
	var out bytes.Buffer
	printPackages(&out, nil)
	assert.Equal(t, "No packages found.\n", out.String())

	out.Reset()
	printPackages(&out, []core.Package{
		{Name: "vim", Version: "9.1", Source: core.BackendPacman, Installed: true, Description: "Vi Improved"},
	})
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "vim")
	assert.Contains(t, out.String(), "pacman")
	assert.Contains(t, out.String(), "yes")
}

func TestPrintUpdates(t *testing.T) {
	var out bytes.Buffer
	printUpdates(&out, nil)
	assert.Equal(t, "Everything is up to date.\n", out.String())

	out.Reset()
	printUpdates(&out, []core.Package{
		{Name: "vim", Version: "9.0", NewVersion: "9.1", Source: core.BackendPacman},
		{Name: "org.gimp.GIMP", Version: "2.10", NewVersion: "3.0", Source: core.BackendFlatpak},
	})
	assert.Contains(t, out.String(), "9.0")
	assert.Contains(t, out.String(), "3.0")
	assert.Contains(t, out.String(), "2 updates available")
}

func TestBySource(t *testing.T) {
	packages := []core.Package{
		{Name: "vim", Source: core.BackendPacman},
		{Name: "org.gimp.GIMP", Source: core.BackendFlatpak},
	}
	got := bySource(packages, core.BackendFlatpak)
	require.Len(t, got, 1)
	assert.Equal(t, "org.gimp.GIMP", got[0].Name)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "all packages", describe(core.Request{Action: core.ActionUpdate}))
	assert.Equal(t, "vim", describe(core.Request{Action: core.ActionInstall, Package: "vim"}))
	assert.Equal(t, "Removing", progressVerb(core.ActionRemove))
	assert.Equal(t, "Updated", doneVerb(core.ActionUpdate))
}
