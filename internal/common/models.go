package common

import "time"

// DownloadInfo contains information about a download resource.
type DownloadInfo struct {
	URL            string
	MimeType       string
	TotalSize      int64
	SupportsRanges bool // false when the server refuses byte ranges outright
	LastModified   time.Time
	ETag           string
}

// Config contains all per-run download options.
type Config struct {
	Workers    int               `json:"workers"`           // Number of parallel range requests
	Timeout    time.Duration     `json:"timeout"`           // Budget for a single request, body included
	BufferSize int               `json:"buffer_size"`       // Copy buffer per worker
	TempDir    string            `json:"temp_dir"`          // Parent of the per-run scratch directory
	Headers    map[string]string `json:"headers,omitempty"` // Custom headers

	ThrottleSpeed int64 `json:"throttle_speed,omitempty"` // Bandwidth throttle in bytes/sec shared by all workers
}

const (
	DefaultWorkers    = 4
	DefaultTimeout    = 300 * time.Second
	DefaultBufferSize = 8 * 1024
)

// DefaultConfig returns the per-run options used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Workers:    DefaultWorkers,
		Timeout:    DefaultTimeout,
		BufferSize: DefaultBufferSize,
	}
}
