package board

import "sync/atomic"

type entry[T any] struct {
	value   T
	version uint64
}

// Cell holds the latest value of one metric. It supports one writer and any
// number of concurrent readers; a reader sees either the previous or the new
// value, never a mix of both.
type Cell[T any] struct {
	p atomic.Pointer[entry[T]]
}

// Store replaces the value and returns its version, starting at 1.
func (c *Cell[T]) Store(v T) uint64 {
	version := uint64(1)
	if old := c.p.Load(); old != nil {
		version = old.version + 1
	}
	c.p.Store(&entry[T]{value: v, version: version})
	return version
}

// Load returns the latest value and its version. Version 0 means nothing
// was published yet.
func (c *Cell[T]) Load() (T, uint64) {
	e := c.p.Load()
	if e == nil {
		var zero T
		return zero, 0
	}
	return e.value, e.version
}
