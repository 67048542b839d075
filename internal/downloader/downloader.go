package downloader

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/NamanBalaji/mtdl/internal/chunk"
	"github.com/NamanBalaji/mtdl/internal/common"
	"github.com/NamanBalaji/mtdl/internal/progress"
)

// ErrIncompleteChunk is returned when a range response ends early or runs past its range.
var ErrIncompleteChunk = stderrors.New("range response does not match the chunk size")

// Fetcher is the protocol side of a download: size discovery and range requests.
type Fetcher interface {
	// Initialize discovers the size of the resource at url.
	Initialize(ctx context.Context, url string) (*common.DownloadInfo, error)
	// FetchRange returns the body of a request for exactly the bytes of c.
	FetchRange(ctx context.Context, url string, c chunk.Chunk) (io.ReadCloser, error)
}

// Option customizes a Download.
type Option func(*Download)

// WithRenderer sets where progress is displayed.
func WithRenderer(r progress.Renderer) Option {
	return func(d *Download) {
		d.renderer = r
	}
}

// WithReportInterval sets how often progress is rendered.
func WithReportInterval(interval time.Duration) Option {
	return func(d *Download) {
		d.interval = interval
	}
}
