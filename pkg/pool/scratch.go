// Package pool recycles scratch byte slices used while encoding records.
package pool

import "sync"

// ScratchPool hands out empty byte slices with a guaranteed capacity.
// Slices are passed around by pointer so Put does not allocate.
type ScratchPool struct {
	size    int // Capacity of freshly made slices.
	maxKeep int // Slices that grew past this are left to the GC.
	pool    sync.Pool
}

// NewScratchPool returns a pool whose slices start with capacity size and
// are kept while they stay within twice that.
func NewScratchPool(size int) *ScratchPool {
	if size < 0 {
		size = 0
	}

	p := &ScratchPool{size: size, maxKeep: 2 * size}
	p.pool.New = func() any {
		b := make([]byte, 0, p.size)
		return &b
	}
	return p
}

// Get returns an empty slice with capacity of at least n.
func (p *ScratchPool) Get(n int) *[]byte {
	b := p.pool.Get().(*[]byte)
	if cap(*b) < n {
		*b = make([]byte, 0, n)
	}
	*b = (*b)[:0]
	return b
}

// Put returns b to the pool. b must not be used afterwards.
func (p *ScratchPool) Put(b *[]byte) {
	if b == nil || cap(*b) > p.maxKeep {
		return
	}

	*b = (*b)[:0]
	p.pool.Put(b)
}
