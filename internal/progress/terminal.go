package progress

import (
	"fmt"
	"io"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
)

const (
	cursorUp  = "\x1b[%dA"
	clearLine = "\r\x1b[2K"

	defaultBarWidth = 30
)

// TerminalRenderer draws one line per worker plus an aggregate line and
// redraws them in place on every render. It assumes a VT100-compatible
// terminal.
type TerminalRenderer struct {
	out   io.Writer
	bar   bprogress.Model
	lines int
}

// NewTerminalRenderer creates a renderer writing to out with progress bars of
// barWidth cells. A barWidth <= 0 selects the default width.
func NewTerminalRenderer(out io.Writer, barWidth int) *TerminalRenderer {
	if barWidth <= 0 {
		barWidth = defaultBarWidth
	}

	return &TerminalRenderer{
		out: out,
		bar: bprogress.New(
			bprogress.WithDefaultGradient(),
			bprogress.WithWidth(barWidth),
			bprogress.WithoutPercentage(),
		),
	}
}

func (r *TerminalRenderer) Begin(info RunInfo) {
	fmt.Fprintln(r.out, headerStyle.Render("Downloading "+info.URL))
	fmt.Fprintf(r.out, "File size: %.2f MB (%s) | Workers: %d\n",
		float64(info.TotalSize)/1024/1024, humanize.IBytes(uint64(info.TotalSize)), info.Workers)
	if info.TempDir != "" {
		fmt.Fprintf(r.out, "Temp dir: %s\n", info.TempDir)
	}
}

func (r *TerminalRenderer) Render(s Snapshot) {
	if r.lines > 0 {
		fmt.Fprintf(r.out, cursorUp, r.lines)
	}

	for _, c := range s.Chunks {
		r.line(workerLabelStyle.Render(fmt.Sprintf("worker %d", c.Index)), c.Percent(), c.Downloaded, c.Size)
	}
	r.line(totalLabelStyle.Render("total"), s.Percent(), s.Downloaded, s.TotalSize)

	r.lines = len(s.Chunks) + 1
}

func (r *TerminalRenderer) Finish(s Snapshot) {
	r.Render(s)
	r.lines = 0
}

func (r *TerminalRenderer) Summary(s Summary) {
	fmt.Fprintf(r.out, "%s %s (%s) in %s\n",
		doneStyle.Render("Saved"),
		s.Output,
		humanize.IBytes(uint64(s.TotalSize)),
		s.Elapsed.Round(time.Millisecond),
	)
}

func (r *TerminalRenderer) line(label string, pct float64, done, total int64) {
	fmt.Fprintf(r.out, "%s%s %s %s %s\n",
		clearLine,
		label,
		r.bar.ViewAs(pct/100),
		percentStyle.Render(fmt.Sprintf("%.2f%%", pct)),
		sizeStyle.Render(fmt.Sprintf("%s / %s", humanize.IBytes(uint64(done)), humanize.IBytes(uint64(total)))),
	)
}
