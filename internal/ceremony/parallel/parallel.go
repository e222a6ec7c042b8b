// Package parallel fans work out across a bounded worker pool using
// golang.org/x/sync/errgroup. It replaces the chunk-and-spawn pattern the
// original implementation built on crossbeam::scope (src/multicore.rs,
// src/protocol/multicore.rs) with Go's structured-concurrency equivalent.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
)

// DefaultWorkers returns a sensible worker count when the caller has not
// configured one explicitly.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// Chunks splits the half-open range [0, n) into at most workers
// contiguous sub-ranges and runs fn over each concurrently, returning the
// first error encountered (if any). workers is clamped to [1, n].
func Chunks(n, workers int, fn func(lo, hi int) error) error {
	return IndexedChunks(n, workers, func(_, lo, hi int) error {
		return fn(lo, hi)
	})
}

// IndexedChunks is Chunks but also passes each goroutine its chunk index
// in [0, workers), for callers that need a private per-chunk slot to write
// results into without synchronization.
func IndexedChunks(n, workers int, fn func(idx, lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	g, _ := errgroup.WithContext(context.Background())

	chunk := n / workers
	lo := 0
	for i := 0; i < workers; i++ {
		hi := lo + chunk
		if i == workers-1 {
			hi = n
		}
		idx, lo, hi := i, lo, hi
		g.Go(func() error {
			return fn(idx, lo, hi)
		})
		lo = hi
	}

	return g.Wait()
}

// MulAllG1 scales every element of v by c in place, splitting the work
// across workers goroutines.
func MulAllG1(v []curve.G1, c curve.Fr, workers int) error {
	return Chunks(len(v), workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v[i] = curve.MulG1(&v[i], &c)
		}
		return nil
	})
}

// MulAllG2 scales every element of v by c in place, splitting the work
// across workers goroutines.
func MulAllG2(v []curve.G2, c curve.Fr, workers int) error {
	return Chunks(len(v), workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v[i] = curve.MulG2(&v[i], &c)
		}
		return nil
	})
}

// AddAllG1 adds other[i] into v[i] for every index, splitting the work
// across workers goroutines. len(v) must equal len(other).
func AddAllG1(v, other []curve.G1, workers int) error {
	return Chunks(len(v), workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v[i].Add(&v[i], &other[i])
		}
		return nil
	})
}
