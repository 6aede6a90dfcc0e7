// Package state holds the per-operation idle/loading/resolved/failed slot
// every fetcher in the kit owns.
package state

import "sync"

type Status uint8

const (
	StatusIdle Status = iota
	StatusLoading
	StatusResolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time copy of a Slot.
type Snapshot[T any] struct {
	Status Status
	Value  T
	Err    error
}

func (s Snapshot[T]) Loading() bool { return s.Status == StatusLoading }

// Ticket identifies one cycle started with Begin.
type Ticket uint64

// Slot is safe for concurrent use. Only the most recently started cycle may
// publish a result; completions carrying an older ticket are dropped. A newer
// cycle never cancels an older one: each caller's own context governs its
// request, and the older caller still gets its own result back.
type Slot[T any] struct {
	mu   sync.Mutex
	gen  uint64
	snap Snapshot[T]
}

// Begin starts a new cycle. The current value is kept unless Reset is called.
func (s *Slot[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.snap.Status = StatusLoading
	s.snap.Err = nil

	return Ticket(s.gen)
}

// Resolve publishes v if t is still current and reports whether it did.
func (s *Slot[T]) Resolve(t Ticket, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(t) {
		return false
	}
	s.snap.Status = StatusResolved
	s.snap.Value = v
	s.snap.Err = nil
	return true
}

// Fail records err if t is still current. The value is replaced with v so
// callers decide whether a failure clears or keeps the previous value.
func (s *Slot[T]) Fail(t Ticket, v T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(t) {
		return false
	}
	s.snap.Status = StatusFailed
	s.snap.Value = v
	s.snap.Err = err
	return true
}

// Set overwrites the value without touching status or generation. Used for
// side values published mid-cycle (a tx hash before its receipt arrives).
func (s *Slot[T]) Set(t Ticket, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(t) {
		return false
	}
	s.snap.Value = v
	return true
}

// Reset returns the slot to idle with v, invalidating any in-flight cycle.
func (s *Slot[T]) Reset(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.snap = Snapshot[T]{Status: StatusIdle, Value: v}
}

func (s *Slot[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Slot[T]) currentLocked(t Ticket) bool {
	return uint64(t) == s.gen
}
