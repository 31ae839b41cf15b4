package cpu

import (
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// minParallel is the smallest element count worth fanning out over
// goroutines; below it the scheduling overhead dominates.
const minParallel = 4096

// pfor runs fn over [0,n) partitioned into contiguous chunks, one goroutine
// per worker. Small ranges run inline. The chunks never overlap, so kernels
// may write their destination without locking.
func (b *Backend) pfor(n int, fn func(start, end int) error) error {
	if n < minParallel || b.workers < 2 {
		return fn(0, n)
	}
	chunk := (n + b.workers - 1) / b.workers
	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		s, e := start, min(start+chunk, n)
		g.Go(func() error { return fn(s, e) })
	}
	return g.Wait()
}

// atomicFloat32 stores a float32 with atomic load/store through its bits.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (a *atomicFloat32) Load() float32  { return math.Float32frombits(a.bits.Load()) }
func (a *atomicFloat32) Store(v float32) { a.bits.Store(math.Float32bits(v)) }
