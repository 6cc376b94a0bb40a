package pathing

import (
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/motion/internal/core/geometry"
)

// Cached memoizes the non-empty results of an inner strategy. Endpoints are
// quantized to Resolution before hashing, so requests that differ by less
// than one resolution step share an entry. The oldest entry is evicted once
// Capacity is reached.
type Cached struct {
	inner      Strategy
	resolution float64
	capacity   int

	mu      sync.Mutex
	entries map[uint64]geometry.Path
	order   []uint64
	hits    uint64
	misses  uint64
}

func NewCached(inner Strategy, resolution float64, capacity int) *Cached {
	if resolution <= 0 {
		resolution = 0.01
	}
	if capacity <= 0 {
		capacity = 256
	}
	return &Cached{
		inner:      inner,
		resolution: resolution,
		capacity:   capacity,
		entries:    make(map[uint64]geometry.Path, capacity),
	}
}

func (c *Cached) Name() string { return "cached(" + c.inner.Name() + ")" }

func (c *Cached) FindPath(ctx context.Context, start, end geometry.Point) (geometry.Path, error) {
	key := c.key(start, end)

	c.mu.Lock()
	if p, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return p.Clone(), nil
	}
	c.misses++
	c.mu.Unlock()

	p, err := c.inner.FindPath(ctx, start, end)
	if err != nil || p.Empty() {
		return p, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.capacity {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = p.Clone()
	return p, nil
}

// Stats returns cache hits and misses.
func (c *Cached) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]geometry.Path, c.capacity)
	c.order = nil
}

func (c *Cached) key(start, end geometry.Point) uint64 {
	var buf [32]byte
	for i, v := range []float64{start.X, start.Y, end.X, end.Y} {
		q := int64(math.Round(v / c.resolution))
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(q))
	}
	return xxhash.Sum64(buf[:])
}
