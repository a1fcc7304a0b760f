// Package fixedbuf implements the power-of-two circular buffer used by the
// RST regulator's history and shared with the converter supervisor wherever
// it needs the same fixed-depth, mask-indexed history shape.
package fixedbuf

// Ring is a fixed-capacity circular buffer of length a power of two, so that
// indexing wraps with a bitmask instead of a modulo.
type Ring[T any] struct {
	buf  []T
	mask int
}

// NewRing returns a Ring holding at least capacity elements, rounded up to
// the next power of two.
func NewRing[T any](capacity int) *Ring[T] {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &Ring[T]{buf: make([]T, n), mask: n - 1}
}

// Len returns the ring's capacity (its allocated length, not a count of
// valid entries — the RST history is always fully populated by Init*).
func (r *Ring[T]) Len() int {
	return len(r.buf)
}

// At returns the element stored index steps behind head, where head is the
// most recently written slot. Negative or out-of-range offsets wrap.
func (r *Ring[T]) At(head, offset int) T {
	return r.buf[(head-offset)&r.mask]
}

// Set writes v into the slot at index idx (already wrapped by the caller's
// history index, not an offset from head).
func (r *Ring[T]) Set(idx int, v T) {
	r.buf[idx&r.mask] = v
}

// Get returns the raw slot at idx without offset arithmetic.
func (r *Ring[T]) Get(idx int) T {
	return r.buf[idx&r.mask]
}

// Mask returns the index mask (Len()-1).
func (r *Ring[T]) Mask() int {
	return r.mask
}

// Fill sets every slot to v.
func (r *Ring[T]) Fill(v T) {
	for i := range r.buf {
		r.buf[i] = v
	}
}
