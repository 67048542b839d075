package chunk

import (
	"fmt"
	"path/filepath"

	"github.com/NamanBalaji/mtdl/internal/errors"
)

// Chunk is the inclusive byte range assigned to one worker. It is never
// modified after the plan is built.
type Chunk struct {
	Index     int   // Worker index, also the merge position
	StartByte int64 // First byte of the range in the remote file
	EndByte   int64 // Last byte of the range, inclusive
}

// Size returns the total size of the chunk in bytes.
func (c Chunk) Size() int64 {
	return c.EndByte - c.StartByte + 1
}

// RangeHeader returns the value of the HTTP Range header for the chunk.
func (c Chunk) RangeHeader() string {
	return fmt.Sprintf("bytes=%d-%d", c.StartByte, c.EndByte)
}

// TempFileName returns the scratch file name of the chunk inside dir.
func (c Chunk) TempFileName(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("output_%d.tmp", c.Index))
}

// Plan partitions a resource of TotalSize bytes between Workers chunks.
type Plan struct {
	TotalSize int64
	Workers   int
	ChunkSize int64
	Chunks    []Chunk
}

// NewPlan splits [0, totalSize-1] into contiguous chunks. Every chunk but the
// last holds exactly ChunkSize bytes; the last one absorbs the remainder of
// the integer division. The worker count is clamped to totalSize so no chunk
// is ever empty, and a zero-byte resource yields a plan without chunks.
func NewPlan(totalSize int64, workers int) (*Plan, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, workers)
	}
	if totalSize < 0 {
		return nil, errors.ErrSizeUnavailable
	}

	if totalSize == 0 {
		return &Plan{TotalSize: 0, Workers: 0, Chunks: []Chunk{}}, nil
	}

	n := int64(workers)
	if n > totalSize {
		n = totalSize
	}

	chunkSize := totalSize / n
	chunks := make([]Chunk, n)
	for i := int64(0); i < n; i++ {
		end := (i+1)*chunkSize - 1
		if i == n-1 {
			end = totalSize - 1
		}

		chunks[i] = Chunk{
			Index:     int(i),
			StartByte: i * chunkSize,
			EndByte:   end,
		}
	}

	return &Plan{
		TotalSize: totalSize,
		Workers:   int(n),
		ChunkSize: chunkSize,
		Chunks:    chunks,
	}, nil
}

// TempFiles returns the scratch file of every chunk inside dir, in merge order.
func (p *Plan) TempFiles(dir string) []string {
	files := make([]string, len(p.Chunks))
	for i, c := range p.Chunks {
		files[i] = c.TempFileName(dir)
	}

	return files
}
