package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"scriptunit/internal/domain"
)

// ProgressBar shows how many script files ran and how their tests went
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a new progress bar over count script files on stderr
func NewProgressBar(count int) *ProgressBar {
	return NewProgressBarTo(os.Stderr, count)
}

// NewProgressBarTo creates a progress bar writing to w
func NewProgressBarTo(w io.Writer, count int) *ProgressBar {
	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription(describe(domain.Counts{})),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

// Update moves the bar to completedFiles and shows the test counts so far
func (p *ProgressBar) Update(completedFiles int, counts domain.Counts) {
	p.bar.Describe(describe(counts))
	_ = p.bar.Set(completedFiles)
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

func describe(counts domain.Counts) string {
	return color.CyanString("Running tests: ") +
		color.GreenString("[passed: %d", counts.Passed) +
		" | " +
		color.RedString("failed: %d", counts.Failed+counts.Errors) +
		" | " +
		color.YellowString("ignored: %d]", counts.Ignored)
}
