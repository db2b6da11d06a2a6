// Package progress renders a stderr progress bar for file processing.
package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar over a known number of files.
type Tracker struct {
	bar *progressbar.ProgressBar
}

// NewTracker creates a progress bar. When quiet is true the bar writes
// nowhere and the tracker becomes a no-op.
func NewTracker(label string, total int, quiet bool) *Tracker {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	t.bar.Add(1)
}

// Finish clears the bar.
func (t *Tracker) Finish() {
	t.bar.Finish()
	t.bar.Clear()
}
