package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NamanBalaji/mtdl/internal/chunk"
	"github.com/NamanBalaji/mtdl/internal/common"
	"github.com/NamanBalaji/mtdl/internal/errors"
	"github.com/NamanBalaji/mtdl/internal/logger"
	"github.com/NamanBalaji/mtdl/internal/progress"
	httpProto "github.com/NamanBalaji/mtdl/internal/protocol/http"
)

// Download represents one run: a single resource fetched by parallel range
// requests and assembled into Output.
type Download struct {
	ID           uuid.UUID     `json:"id"`
	URL          string        `json:"url"`
	Output       string        `json:"output"`
	TotalSize    int64         `json:"total_size"`
	Workers      int           `json:"workers"` // Effective worker count after planning
	Status       common.Status `json:"status"`
	StartTime    time.Time     `json:"start_time,omitempty"`
	EndTime      time.Time     `json:"end_time,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`

	// Validators of the remote resource as reported at size discovery
	MimeType     string    `json:"mime_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified,omitzero"`

	// runtime fields
	config   *common.Config
	fetcher  Fetcher
	renderer progress.Renderer
	interval time.Duration
}

// NewDownload creates a pending download of url into output.
func NewDownload(url, output string, fetcher Fetcher, config *common.Config, opts ...Option) *Download {
	if config == nil {
		config = common.DefaultConfig()
	}

	d := &Download{
		ID:      uuid.New(),
		URL:     url,
		Output:  output,
		Workers: config.Workers,
		Status:  common.StatusPending,
		config:  config,
		fetcher: fetcher,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.renderer == nil {
		d.renderer = progress.NewLogRenderer(logger.Zap())
	}

	logger.Infof("Creating new download: id=%s, url=%s, output=%s", d.ID, url, output)

	return d
}

// SetStatus sets the Status of a Download.
func (d *Download) SetStatus(status common.Status) {
	atomic.StoreInt32(&d.Status, status)
}

// GetStatus returns the current Status of the Download.
func (d *Download) GetStatus() common.Status {
	return atomic.LoadInt32(&d.Status)
}

// Duration returns the wall-clock time of a finished run.
func (d *Download) Duration() time.Duration {
	if d.StartTime.IsZero() || d.EndTime.IsZero() {
		return 0
	}

	return d.EndTime.Sub(d.StartTime)
}

// Start runs the download to completion: size discovery, planning, parallel
// fetch with live progress, join and assembly. The first error aborts the run;
// the scratch directory is removed on every path.
func (d *Download) Start(ctx context.Context) (err error) {
	d.StartTime = time.Now()
	defer func() {
		d.EndTime = time.Now()
		if err != nil {
			d.ErrorMessage = err.Error()
			d.SetStatus(common.StatusFailed)
			logger.Errorf("Download %s failed after %v: %v", d.ID, d.Duration(), err)
		}
	}()

	d.SetStatus(common.StatusSizeDiscovery)
	info, err := d.fetcher.Initialize(ctx, d.URL)
	if err != nil {
		return err
	}
	d.TotalSize = info.TotalSize
	d.MimeType = info.MimeType
	d.ETag = info.ETag
	d.LastModified = info.LastModified

	if info.TotalSize > 0 && !info.SupportsRanges {
		return errors.NewHTTPError(httpProto.ErrRangesNotSupported, d.URL, "HEAD", http.StatusOK)
	}

	d.SetStatus(common.StatusPlanning)
	plan, err := chunk.NewPlan(info.TotalSize, d.config.Workers)
	if err != nil {
		return err
	}
	d.Workers = plan.Workers
	logger.Debugf("Download %s planned: size=%d, workers=%d, chunk=%d", d.ID, plan.TotalSize, plan.Workers, plan.ChunkSize)

	tempDir, err := os.MkdirTemp(d.config.TempDir, "mtdl-*")
	if err != nil {
		return errors.NewIOError(err, d.config.TempDir, "create temp dir")
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			logger.Warnf("Failed to remove temp dir %s: %v", tempDir, rmErr)
		}
	}()

	d.renderer.Begin(progress.RunInfo{
		URL:       d.URL,
		Output:    d.Output,
		TotalSize: plan.TotalSize,
		Workers:   plan.Workers,
		TempDir:   tempDir,
	})

	d.SetStatus(common.StatusFetching)
	if err := d.fetchAll(ctx, plan, tempDir); err != nil {
		return err
	}

	d.SetStatus(common.StatusAssembling)
	if err := chunk.Merge(d.Output, plan.TempFiles(tempDir)); err != nil {
		return err
	}

	d.SetStatus(common.StatusCompleted)
	d.renderer.Summary(progress.Summary{
		Output:    d.Output,
		TotalSize: plan.TotalSize,
		Elapsed:   time.Since(d.StartTime),
	})
	logger.Infof("Download %s completed: %d bytes in %v", d.ID, plan.TotalSize, time.Since(d.StartTime))

	return nil
}

// fetchAll runs one worker per chunk next to the progress reporter. Workers
// are joined first, then the reporter; it is stopped early only when a worker
// failed, otherwise it returns by itself once every byte is counted.
func (d *Download) fetchAll(ctx context.Context, plan *chunk.Plan, tempDir string) error {
	if len(plan.Chunks) == 0 {
		logger.Debugf("Download %s has nothing to fetch", d.ID)
		return nil
	}

	tracker := progress.NewTracker(len(plan.Chunks))
	reporter := progress.NewReporter(tracker, plan, d.renderer, progress.Options{
		Interval: d.interval,
		Start:    d.StartTime,
	})

	reportCtx, stopReport := context.WithCancel(ctx)
	defer stopReport()

	reportDone := make(chan struct{})
	go func() {
		defer close(reportDone)
		reporter.Run(reportCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range plan.Chunks {
		g.Go(func() error {
			return d.fetchChunk(gctx, tracker, c, c.TempFileName(tempDir))
		})
	}

	err := g.Wait()

	d.SetStatus(common.StatusJoining)
	if err != nil {
		stopReport()
	}
	<-reportDone

	return err
}

// fetchChunk streams the bytes of c into path, adding every written block to
// the chunk's counter.
func (d *Download) fetchChunk(ctx context.Context, tracker *progress.Tracker, c chunk.Chunk, path string) (err error) {
	logger.Debugf("Worker %d fetching %s into %s", c.Index, c.RangeHeader(), path)

	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError(err, path, "create chunk file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError(cerr, path, "close chunk file")
		}
	}()

	body, err := d.fetcher.FetchRange(ctx, d.URL, c)
	if err != nil {
		return err
	}
	defer body.Close()

	bufSize := d.config.BufferSize
	if bufSize <= 0 {
		bufSize = common.DefaultBufferSize
	}
	buf := make([]byte, bufSize)

	size := c.Size()
	var written int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if written+int64(n) > size {
				return errors.NewNetworkError(fmt.Errorf("%w: chunk %d received more than %d bytes", ErrIncompleteChunk, c.Index, size), d.URL, "GET")
			}
			if _, werr := f.Write(buf[:n]); werr != nil {
				return errors.NewIOError(fmt.Errorf("%w: %w", chunk.ErrFileWrite, werr), path, "write chunk")
			}
			written += int64(n)
			tracker.Add(c.Index, int64(n))
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return httpProto.ClassifyError(rerr, d.URL, "GET")
		}
	}

	if written != size {
		return errors.NewNetworkError(fmt.Errorf("%w: chunk %d received %d of %d bytes", ErrIncompleteChunk, c.Index, written, size), d.URL, "GET")
	}

	logger.Debugf("Worker %d finished: %d bytes", c.Index, written)

	return nil
}
