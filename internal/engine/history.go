package engine

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/NamanBalaji/mtdl/internal/common"
	"github.com/NamanBalaji/mtdl/internal/downloader"
)

// PrintHistory writes one line per run: when it started, its status, size,
// worker count, duration, output and URL. The validators of the resource and
// the error of a failed run follow on their own lines.
func PrintHistory(w io.Writer, runs []*downloader.Download, now time.Time) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No recorded downloads.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tSIZE\tWORKERS\tDURATION\tOUTPUT\tURL")

	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			humanize.RelTime(r.StartTime, now, "ago", "from now"),
			common.StatusName(r.GetStatus()),
			humanize.IBytes(uint64(max(r.TotalSize, 0))),
			r.Workers,
			r.Duration().Round(time.Millisecond),
			r.Output,
			r.URL,
		)
		if v := validators(r); v != "" {
			fmt.Fprintf(tw, "\t%s\n", v)
		}
		if r.ErrorMessage != "" {
			fmt.Fprintf(tw, "\terror: %s\n", r.ErrorMessage)
		}
	}

	return tw.Flush()
}

// validators describes the remote resource the way it was seen at size
// discovery, so a later run can tell whether it changed.
func validators(r *downloader.Download) string {
	var parts []string
	if r.MimeType != "" {
		parts = append(parts, "type: "+r.MimeType)
	}
	if r.ETag != "" {
		parts = append(parts, "etag: "+r.ETag)
	}
	if !r.LastModified.IsZero() {
		parts = append(parts, "modified: "+r.LastModified.UTC().Format(time.RFC3339))
	}

	return strings.Join(parts, ", ")
}
