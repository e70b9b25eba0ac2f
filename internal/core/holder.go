package core

import "sync/atomic"

// Holder hands out the current scorer snapshot. Retraining builds a
// fresh scorer and swaps it in; in-flight analysis keeps the snapshot
// it already resolved, so no reader ever observes a half-trained state.
type Holder struct {
	current atomic.Pointer[Scorer]
}

// NewHolder creates a holder around an initial scorer.
func NewHolder(s *Scorer) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Current returns the active scorer snapshot.
func (h *Holder) Current() *Scorer {
	return h.current.Load()
}

// Swap atomically replaces the active scorer.
func (h *Holder) Swap(s *Scorer) {
	h.current.Store(s)
}
