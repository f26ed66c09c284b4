package model

import "sync/atomic"

// Cell is a single-writer / many-reader observable value, grounded on the
// same single-producer-cell shape the teacher uses for session lookups
// (internal/login/session_manager.go) but specialized to one whole value
// rather than a keyed map, which is what the control-plane's shared
// "current game id" and node-registry observations actually need
// (spec.md §9: "a single-producer observable cell with cloneable read
// handles"). Readers via Load always see a fully-formed *T, never a torn
// write, because atomic.Pointer swaps the whole pointer.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

// NewCell returns a Cell seeded with the given value.
func NewCell[T any](v T) *Cell[T] {
	c := &Cell[T]{}
	c.Store(v)
	return c
}

// Store atomically replaces the cell's value.
func (c *Cell[T]) Store(v T) {
	c.p.Store(&v)
}

// Load returns the current value. Safe to call concurrently with Store.
func (c *Cell[T]) Load() T {
	p := c.p.Load()
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
