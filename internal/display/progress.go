package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ProgressBar represents an ASCII progress bar with color support
type ProgressBar struct {
	current     int
	total       int
	width       int
	enableColor bool
	prefix      string
	mu          sync.RWMutex
}

// NewProgressBar creates a new progress bar
func NewProgressBar(total, width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{
		total:       total,
		width:       width,
		enableColor: enableColor,
	}
}

// Update sets the current progress value
func (pb *ProgressBar) Update(current int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current = current
}

// Increment increments the current progress by 1
func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current++
}

// Current returns the current progress value
func (pb *ProgressBar) Current() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.current
}

// Percentage returns the progress percentage (0-100)
func (pb *ProgressBar) Percentage() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.percentage()
}

func (pb *ProgressBar) percentage() int {
	if pb.total <= 0 {
		return 0
	}
	perc := (pb.current * 100) / pb.total
	if perc > 100 {
		perc = 100
	}
	if perc < 0 {
		perc = 0
	}
	return perc
}

// SetPrefix sets a custom prefix for the progress bar
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.prefix = prefix
}

// Render generates the ASCII progress bar string
func (pb *ProgressBar) Render() string {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	perc := pb.percentage()
	filled := (perc * pb.width) / 100

	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", pb.width-filled) + "]"
	result := fmt.Sprintf("%s%s %d/%d (%d%%)", pb.prefix, bar, pb.current, pb.total, perc)

	if perc < 100 {
		return paint(pb.enableColor, color.FgCyan).Sprint(result)
	}
	return paint(pb.enableColor, color.FgGreen).Sprint(result)
}

// ProgressWriter redraws a ProgressBar in place on a terminal.
// On other writers it prints nothing, so piped output stays clean.
type ProgressWriter struct {
	out     io.Writer
	bar     *ProgressBar
	enabled bool
}

// NewProgressWriter creates a ProgressWriter for total steps
func NewProgressWriter(out io.Writer, total int) *ProgressWriter {
	bar := NewProgressBar(total, 30, ColorEnabled(out))
	bar.SetPrefix("Flattening ")
	return &ProgressWriter{out: out, bar: bar, enabled: IsTerminal(out)}
}

// Step advances the bar to done and redraws it
func (p *ProgressWriter) Step(done int) {
	p.bar.Update(done)
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.out, "\r%s", p.bar.Render())
}

// Finish ends the progress line
func (p *ProgressWriter) Finish() {
	if !p.enabled || p.bar.Current() == 0 {
		return
	}
	fmt.Fprintln(p.out)
}
