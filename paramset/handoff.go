// Package paramset implements the double-buffered parameter-handoff
// protocol by which a background (non-RT) context publishes freshly
// recomputed parameters to a real-time context that must never block.
//
// A Go channel is exactly the kind of blocking, allocating primitive the RT
// context here is forbidden to touch: it must never allocate or perform
// synchronous I/O. Handoff keeps a one-producer/one-consumer shape but
// realizes it as a single-slot SPSC exchange guarded by an atomic flag
// instead of a channel.
package paramset

import (
	"runtime"
	"sync/atomic"
)

// Handoff is a single-slot SPSC publication channel for a *T owned by a
// background writer and consumed by a real-time reader. The zero value is
// not usable; construct with NewHandoff.
type Handoff[T any] struct {
	active *T
	next   *T

	// isNextReady is the release flag: Publish stores true after writing
	// next (release), Take loads it (acquire) before reading next and
	// stores false after swapping pointers (release), consumed by the next
	// Writable's busy-wait (acquire).
	isNextReady atomic.Bool
}

// NewHandoff returns a Handoff with active and next both initialised to the
// given values (typically the result of the same constructor called twice).
func NewHandoff[T any](active, next *T) *Handoff[T] {
	return &Handoff[T]{active: active, next: next}
}

// Active returns the buffer currently visible to the RT reader. Only the RT
// context may call this.
func (h *Handoff[T]) Active() *T {
	return h.active
}

// Take swaps in a pending publication if one is ready. It is non-blocking
// and allocation-free, safe to call from the RT context every iteration.
// It returns true if a new buffer was swapped in.
func (h *Handoff[T]) Take() bool {
	if !h.isNextReady.Load() {
		return false
	}
	h.active, h.next = h.next, h.active
	h.isNextReady.Store(false)
	return true
}

// Writable returns the buffer the background context may safely mutate in
// place before calling Publish. If the RT context has not yet consumed the
// previous publication, Writable busy-waits (yielding the processor between
// polls) until it has — there is no timeout; a stuck RT context blocks
// configuration forever. This is the only suspension point in the core, and
// it only ever occurs in the background context, always before any write
// into next, never after.
func (h *Handoff[T]) Writable() *T {
	for h.isNextReady.Load() {
		runtime.Gosched()
	}
	return h.next
}

// Publish makes the buffer last returned by Writable visible to the RT
// reader. Writable's busy-wait already guarantees the RT side has consumed
// whatever was there before, so Publish itself never blocks: it only
// releases the write with the isNextReady=true store.
func (h *Handoff[T]) Publish() {
	h.isNextReady.Store(true)
}

// Pending reports whether a publication is waiting to be consumed by the RT
// reader. Diagnostic only.
func (h *Handoff[T]) Pending() bool {
	return h.isNextReady.Load()
}
