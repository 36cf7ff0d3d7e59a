package compute

import (
	"runtime"
	"sync"
)

const defaultMinChunk = 4096

type Parallel struct {
	workers  int
	minChunk int
}

func NewParallel() *Parallel {
	return &Parallel{
		workers:  runtime.NumCPU(),
		minChunk: defaultMinChunk,
	}
}

// WithWorkers returns a copy limited to the given number of goroutines.
func (p *Parallel) WithWorkers(workers, minChunk int) *Parallel {
	c := *p
	if workers > 0 {
		c.workers = workers
	}
	if minChunk > 0 {
		c.minChunk = minChunk
	}
	return &c
}

func (p *Parallel) Name() string { return "parallel" }

func (p *Parallel) For(n int, fn func(lo, hi int)) {
	ParallelFor(n, p.workers, p.minChunk, fn)
}

// ParallelFor executes fn in parallel over chunks of [0, n).
func ParallelFor(n, numWorkers, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
