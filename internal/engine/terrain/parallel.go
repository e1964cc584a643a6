package terrain

import (
	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny meshes on one goroutine.
const minChunk = 1024

// ParallelRange splits [0, n) into contiguous chunks and runs fn on each.
// With workers <= 1 it runs fn(0, n) on the calling goroutine. fn must only
// touch indices inside its own chunk.
func ParallelRange(n, workers int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 1 || n <= minChunk {
		return fn(0, n)
	}

	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
