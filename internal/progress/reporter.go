package progress

import (
	"context"
	"time"

	"github.com/NamanBalaji/mtdl/internal/chunk"
)

// DefaultInterval is how often the reporter polls the tracker.
const DefaultInterval = 200 * time.Millisecond

// Options configures the progress reporter.
type Options struct {
	// Interval between two renders.
	// Default: 200ms
	Interval time.Duration

	// Start is the reference time for Snapshot.Elapsed.
	// Default: time.Now() when the reporter is created
	Start time.Time
}

// Reporter polls a Tracker and renders its state until the download is complete.
type Reporter struct {
	tracker  *Tracker
	plan     *chunk.Plan
	renderer Renderer
	opts     Options
}

// NewReporter creates a reporter for the chunks of plan.
func NewReporter(tracker *Tracker, plan *chunk.Plan, renderer Renderer, opts Options) *Reporter {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now()
	}

	return &Reporter{
		tracker:  tracker,
		plan:     plan,
		renderer: renderer,
		opts:     opts,
	}
}

// Run renders progress every interval. It returns after one final render as
// soon as the counters add up to the plan's total size, or when ctx is done.
// It never writes to the tracker.
func (r *Reporter) Run(ctx context.Context) Snapshot {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		snap := r.Snapshot()
		if snap.Downloaded >= snap.TotalSize {
			r.renderer.Finish(snap)
			return snap
		}

		r.renderer.Render(snap)

		select {
		case <-ctx.Done():
			snap = r.Snapshot()
			r.renderer.Finish(snap)
			return snap
		case <-ticker.C:
		}
	}
}

// Snapshot reads every counter once.
func (r *Reporter) Snapshot() Snapshot {
	values := r.tracker.Values()

	snap := Snapshot{
		Chunks:    make([]ChunkProgress, len(r.plan.Chunks)),
		TotalSize: r.plan.TotalSize,
		Elapsed:   time.Since(r.opts.Start),
	}

	for i, c := range r.plan.Chunks {
		snap.Chunks[i] = ChunkProgress{
			Index:      c.Index,
			Downloaded: values[i],
			Size:       c.Size(),
		}
		snap.Downloaded += values[i]
	}

	return snap
}
