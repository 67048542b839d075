package progress

import (
	"go.uber.org/zap"
)

// LogRenderer reports progress as structured log entries. Every render emits
// one entry for the aggregate; per-worker entries are logged at debug level.
type LogRenderer struct {
	log *zap.Logger
}

// NewLogRenderer creates a renderer logging to l.
func NewLogRenderer(l *zap.Logger) *LogRenderer {
	return &LogRenderer{log: l}
}

func (r *LogRenderer) Begin(info RunInfo) {
	r.log.Info("download started",
		zap.String("url", info.URL),
		zap.String("output", info.Output),
		zap.Int64("total_bytes", info.TotalSize),
		zap.Int("workers", info.Workers),
		zap.String("temp_dir", info.TempDir),
	)
}

func (r *LogRenderer) Render(s Snapshot) {
	r.snapshot("download progress", s)
}

func (r *LogRenderer) Finish(s Snapshot) {
	r.snapshot("download progress final", s)
}

func (r *LogRenderer) Summary(s Summary) {
	r.log.Info("download complete",
		zap.String("output", s.Output),
		zap.Int64("total_bytes", s.TotalSize),
		zap.Duration("elapsed", s.Elapsed),
	)
}

func (r *LogRenderer) snapshot(msg string, s Snapshot) {
	for _, c := range s.Chunks {
		r.log.Debug("worker progress",
			zap.Int("worker", c.Index),
			zap.Int64("downloaded", c.Downloaded),
			zap.Int64("size", c.Size),
			zap.Float64("percent", c.Percent()),
		)
	}

	r.log.Info(msg,
		zap.Int64("downloaded", s.Downloaded),
		zap.Int64("total_bytes", s.TotalSize),
		zap.Float64("percent", s.Percent()),
		zap.Duration("elapsed", s.Elapsed),
	)
}
