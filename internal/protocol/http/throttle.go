package http

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewLimiter returns a limiter allowing bytesPerSec bytes per second, or nil
// when bytesPerSec <= 0. The burst is never smaller than maxRead so a single
// read can always be admitted.
func NewLimiter(bytesPerSec int64, maxRead int) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}

	burst := int(bytesPerSec)
	if burst < maxRead {
		burst = maxRead
	}

	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// limitedReader blocks after every read until the limiter admits the bytes read.
type limitedReader struct {
	ctx     context.Context
	r       io.ReadCloser
	limiter *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if len(p) > l.limiter.Burst() {
		p = p[:l.limiter.Burst()]
	}

	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.limiter.WaitN(l.ctx, n); werr != nil {
			return n, werr
		}
	}

	return n, err
}

func (l *limitedReader) Close() error {
	return l.r.Close()
}
