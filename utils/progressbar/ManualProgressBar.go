// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ManualProgressBar implement progress bar functionality that must
// be manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed to the screen.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
	out             io.Writer
}

// NewManualProgressBar returns a new ManualProgressBar which is width
// characters wide and full after max iterations. The bar is printed to
// standard output.
func NewManualProgressBar(width, max int) *ManualProgressBar {
	return NewManualProgressBarTo(os.Stdout, width, max)
}

// NewManualProgressBarTo is like NewManualProgressBar but prints the
// bar to out
func NewManualProgressBarTo(out io.Writer, width,
	max int) *ManualProgressBar {
	if max < 1 {
		max = 1
	}
	return &ManualProgressBar{
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
		out:         out,
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ManualProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Set sets the progress counter to the number of iterations performed,
// clipped to the maximum progress
func (p *ManualProgressBar) Set(progress int) {
	p.currentProgress = float64(progress)
	if p.currentProgress > p.maxProgress {
		p.currentProgress = p.maxProgress
	} else if p.currentProgress < 0 {
		p.currentProgress = 0
	}
}

// Fraction returns the fraction of iterations performed
func (p *ManualProgressBar) Fraction() float64 {
	return p.currentProgress / p.maxProgress
}

// Line returns the current progress bar with suffix appended
func (p *ManualProgressBar) Line(suffix string) string {
	p.bar.Reset()
	p.bar.WriteString("|")

	currentProg := p.Fraction() * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	p.bar.WriteString(fmt.Sprintf("| [%.2f%v | elapsed: %v]",
		p.Fraction()*100, "%", time.Since(p.startTime).Truncate(time.Second)))

	if suffix != "" {
		p.bar.WriteString(" ")
		p.bar.WriteString(suffix)
	}
	return p.bar.String()
}

// Display displays the progress bar on the screen, overwriting the
// previously displayed bar. Any suffix is printed after the bar.
func (p *ManualProgressBar) Display(suffix string) {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.Line(suffix))
}

// Done moves past the displayed progress bar
func (p *ManualProgressBar) Done() {
	fmt.Fprintln(p.out)
}
