package guard

import (
	"errors"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when an operation of the guarded kind is already in
// flight.
var ErrBusy = errors.New("guard: operation already in flight")

// Guard is a single-slot task guard: at most one operation of a given kind
// may be pending at a time. Duplicates are rejected, never queued.
type Guard struct {
	sem *semaphore.Weighted
}

func New() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// TryAcquire claims the slot without blocking.
func (g *Guard) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release frees the slot.
func (g *Guard) Release() {
	g.sem.Release(1)
}

// Busy reports whether the slot is currently held.
func (g *Guard) Busy() bool {
	if g.sem.TryAcquire(1) {
		g.sem.Release(1)
		return false
	}
	return true
}

// Do runs fn while holding the slot, or returns ErrBusy if it is taken.
func (g *Guard) Do(fn func() error) error {
	if !g.sem.TryAcquire(1) {
		return ErrBusy
	}
	defer g.sem.Release(1)
	return fn()
}
