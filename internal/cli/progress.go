package cli

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/the-cashback-must-flow/internal/market"
)

// NewProgress creates a progress bar for total remote lookups written to w.
func NewProgress(w io.Writer, total int, description string) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// ProgressFactory returns a constructor of progress bars that write to w,
// suitable for the main page assembler.
func ProgressFactory(w io.Writer) func(total int, description string) market.Progress {
	return func(total int, description string) market.Progress {
		return NewProgress(w, total, description)
	}
}
