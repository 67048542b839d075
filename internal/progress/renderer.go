package progress

import "time"

// RunInfo describes a download before its workers start.
type RunInfo struct {
	URL       string
	Output    string
	TotalSize int64
	Workers   int
	TempDir   string
}

// ChunkProgress is the state of one worker at snapshot time.
type ChunkProgress struct {
	Index      int
	Downloaded int64
	Size       int64
}

// Percent returns the completed share of the chunk in the range [0, 100].
func (c ChunkProgress) Percent() float64 {
	return percent(c.Downloaded, c.Size)
}

// Snapshot is a consistent-enough read of every counter, taken by the reporter.
type Snapshot struct {
	Chunks     []ChunkProgress
	Downloaded int64
	TotalSize  int64
	Elapsed    time.Duration
}

// Percent returns the aggregate completion in the range [0, 100].
func (s Snapshot) Percent() float64 {
	return percent(s.Downloaded, s.TotalSize)
}

// Summary is reported once the output file is complete.
type Summary struct {
	Output    string
	TotalSize int64
	Elapsed   time.Duration
}

// Renderer displays download progress. Render and Finish are only called from
// the reporter goroutine; Begin and Summary from the coordinator before the
// reporter starts and after it returned.
type Renderer interface {
	Begin(info RunInfo)
	Render(s Snapshot)
	Finish(s Snapshot)
	Summary(s Summary)
}

func percent(done, total int64) float64 {
	if total <= 0 {
		return 100
	}

	p := float64(done) / float64(total) * 100
	if p > 100 {
		return 100
	}

	return p
}
