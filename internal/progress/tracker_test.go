package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerStartsAtZero(t *testing.T) {
	tr := NewTracker(3)

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, int64(0), tr.Sum())
	assert.Equal(t, []int64{0, 0, 0}, tr.Values())
}

func TestTrackerConcurrentWritersAndReaders(t *testing.T) {
	const (
		workers = 8
		writes  = 1000
		step    = 8
		total   = workers * writes * step
	)

	tr := NewTracker(workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < writes; j++ {
				tr.Add(i, step)
			}
		}(i)
	}

	done := make(chan struct{})
	violations := make(chan string, 1)
	go func() {
		defer close(violations)
		last := make([]int64, workers)
		for {
			values := tr.Values()
			var sum int64
			for i, v := range values {
				if v < last[i] {
					violations <- "counter decreased"
					return
				}
				last[i] = v
				sum += v
			}
			if sum > total {
				violations <- "sum exceeded total"
				return
			}
			select {
			case <-done:
				return
			default:
			}
		}
	}()

	wg.Wait()
	close(done)

	for v := range violations {
		t.Fatal(v)
	}

	require.Equal(t, int64(total), tr.Sum())
	for i := 0; i < workers; i++ {
		assert.Equal(t, int64(writes*step), tr.Load(i))
	}
}

func TestTrackerAddReturnsNewValue(t *testing.T) {
	tr := NewTracker(1)

	assert.Equal(t, int64(5), tr.Add(0, 5))
	assert.Equal(t, int64(12), tr.Add(0, 7))
	assert.Equal(t, int64(12), tr.Load(0))
}
