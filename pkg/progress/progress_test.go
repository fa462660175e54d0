package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeed(t *testing.T) {
	var tests = []struct {
		name         string
		lines        []string
		wantStatus   string
		wantProgress float64
	}{
		{
			name:         "pacman counter",
			lines:        []string{"(2/4) installing vim"},
			wantStatus:   "Downloading item 2 of 4",
			wantProgress: 50,
		},
		{
			name:         "keyword with percentage",
			lines:        []string{"Downloading org.gimp.GIMP 45%"},
			wantStatus:   "Downloading...",
			wantProgress: 45,
		},
		{
			name:         "percentage never goes backwards",
			lines:        []string{"Progress: [ 60%]", "Progress: [ 20%]"},
			wantStatus:   "Progress: [ 20%]",
			wantProgress: 60,
		},
		{
			name:         "counter never goes backwards",
			lines:        []string{"(3/3) checking keys", "(1/3) installing vim"},
			wantStatus:   "Downloading item 1 of 3",
			wantProgress: 100,
		},
		{
			name:         "error line",
			lines:        []string{"error: target not found: nope"},
			wantStatus:   "Error: error: target not found: nope",
			wantProgress: 0,
		},
		{
			name:         "failed line",
			lines:        []string{"Transaction failed"},
			wantStatus:   "Error: Transaction failed",
			wantProgress: 0,
		},
		{
			name:         "warning line",
			lines:        []string{"warning: vim-9.1 is up to date -- reinstalling"},
			wantStatus:   "Warning: warning: vim-9.1 is up to date -- reinstalling",
			wantProgress: 0,
		},
		{
			name:         "plain line becomes status",
			lines:        []string{"Reading package lists..."},
			wantStatus:   "Reading package lists...",
			wantProgress: 0,
		},
		{
			name:         "keyword keeps its status",
			lines:        []string{"Installing: org.mozilla.firefox/x86_64/stable"},
			wantStatus:   "Installing...",
			wantProgress: 0,
		},
		{
			name:         "blank lines are ignored",
			lines:        []string{"Removing...", "   "},
			wantStatus:   "Removing...",
			wantProgress: 0,
		},
		{
			name:         "zero total counter is not a counter",
			lines:        []string{"(0/0) nothing"},
			wantStatus:   "(0/0) nothing",
			wantProgress: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			var status string
			var progress float64
			for _, l := range tt.lines {
				status, progress = p.Feed(l)
			}
			assert.Equal(t, tt.wantStatus, status)
			assert.InDelta(t, tt.wantProgress, progress, 0.001)
			assert.Equal(t, status, p.Status())
			assert.InDelta(t, progress, p.Progress(), 0.001)
		})
	}
}

func TestFinish(t *testing.T) {
	p := New()
	assert.Equal(t, StatusStarting, p.Status())

	p.Feed("(1/2) upgrading htop")
	status, progress := p.Finish(true)
	assert.Equal(t, StatusCompleted, status)
	assert.Equal(t, float64(100), progress)

	p = New()
	p.Feed("error: failed to commit transaction")
	status, progress = p.Finish(false)
	assert.Equal(t, "Error: error: failed to commit transaction", status)
	assert.Equal(t, float64(0), progress)
}
