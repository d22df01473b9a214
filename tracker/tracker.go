// Package tracker accumulates occurrence counts for flow records.
package tracker

import "fmt"

// Tracker consumes (port, protocol number) records and renders its counts
// as comma separated lines.
type Tracker interface {
	Record(port, protocol int) error
	Snapshot() []string
}

// lines renders entries as comma separated count lines.
func lines[E fmt.Stringer](entries []E) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.String())
	}
	return out
}

// CountTable counts occurrences per key. Keys are reported in the order they
// were first seen.
type CountTable[K comparable] struct {
	counts map[K]uint64
	order  []K
}

func NewCountTable[K comparable]() *CountTable[K] {
	return &CountTable[K]{
		counts: make(map[K]uint64),
	}
}

// Increment adds one to the counter of key, starting at 1, and returns the
// new value.
func (c *CountTable[K]) Increment(key K) uint64 {
	v, ok := c.counts[key]
	if !ok {
		c.order = append(c.order, key)
	}
	v++
	c.counts[key] = v
	return v
}

// Get returns the counter of key, zero when it was never incremented.
func (c *CountTable[K]) Get(key K) uint64 {
	return c.counts[key]
}

// Len returns the number of distinct keys.
func (c *CountTable[K]) Len() int {
	return len(c.order)
}

// Each calls fn for every key in first-seen order.
func (c *CountTable[K]) Each(fn func(key K, count uint64)) {
	for _, k := range c.order {
		fn(k, c.counts[k])
	}
}
