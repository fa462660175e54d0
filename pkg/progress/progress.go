// Package progress turns package manager output lines into a status and percentage.
package progress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	StatusStarting  = "Starting..."
	StatusCompleted = "Completed"
)

var (
	// "(3/10)" as printed by pacman and dnf
	counterRe = regexp.MustCompile(`\((\d+)/(\d+)\)`)
	percentRe = regexp.MustCompile(`(\d{1,3})%`)
)

// keywords map a lowercase substring to the status it selects, checked in order
var keywords = []struct {
	word   string
	status string
}{
	{"downloading", "Downloading..."},
	{"installing", "Installing..."},
	{"verifying", "Verifying..."},
	{"finishing", "Finishing..."},
	{"removing", "Removing..."},
	{"upgrading", "Upgrading..."},
}

// Parser tracks the state of one operation. Progress never decreases.
type Parser struct {
	status   string
	progress float64
}

// New returns a parser in the starting state
func New() *Parser {
	return &Parser{status: StatusStarting}
}

// Status returns the current status text
func (p *Parser) Status() string { return p.status }

// Progress returns the current percentage in [0,100]
func (p *Parser) Progress() float64 { return p.progress }

// Feed applies one output line and returns the updated state
func (p *Parser) Feed(line string) (string, float64) {
	line = strings.TrimSpace(line)
	if line == "" {
		return p.status, p.progress
	}
	lower := strings.ToLower(line)

	// 1. Item counters
	if m := counterRe.FindStringSubmatch(line); m != nil {
		current, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		if total > 0 && current <= total {
			p.raise(float64(current) / float64(total) * 100)
			p.status = fmt.Sprintf("Downloading item %d of %d", current, total)
			return p.status, p.progress
		}
	}

	// 2. Phase keywords
	keyword := false
	for _, k := range keywords {
		if strings.Contains(lower, k.word) {
			p.status = k.status
			keyword = true
			break
		}
	}

	// 3. Percentages
	if m := percentRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		if float64(n) >= p.progress && n <= 100 {
			p.progress = float64(n)
			return p.status, p.progress
		}
	}

	// 4. Everything else becomes the status
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		p.status = "Error: " + line
	case strings.Contains(lower, "warning"):
		p.status = "Warning: " + line
	case !keyword:
		p.status = line
	}
	return p.status, p.progress
}

// Finish sets the final state. A successful operation always ends at 100%.
func (p *Parser) Finish(success bool) (string, float64) {
	if success {
		p.status = StatusCompleted
		p.progress = 100
	}
	return p.status, p.progress
}

func (p *Parser) raise(v float64) {
	if v > 100 {
		v = 100
	}
	if v > p.progress {
		p.progress = v
	}
}
