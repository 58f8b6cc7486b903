// Package pageseq implements the paged backend's per-sequence slot table: a
// sparse, growable vector mapping logical page-sized token windows to
// physical pages, plus the sequence's token counter.
package pageseq

import "kvcachesim/internal/alloc"

const initialSlotCapacity = 4

// State is one sequence's view of the paged backend: which pages back which
// logical windows, how many tokens have been produced, and how many of
// those tokens come from an aliased shared prefix.
//
// State is written by exactly one goroutine (the sequence's own worker);
// only the slow-path slot allocation in Backend.AppendToken needs the
// backend's lock, not State itself.
type State struct {
	slots              []alloc.PageID
	populated          []bool
	curTokens          int
	sharedPrefixTokens int
}

// New creates an empty sequence state.
func New() *State {
	return &State{
		slots:     make([]alloc.PageID, initialSlotCapacity),
		populated: make([]bool, initialSlotCapacity),
	}
}

// CurTokens returns the number of tokens produced so far.
func (s *State) CurTokens() int { return s.curTokens }

// SharedPrefixTokens returns how many leading tokens are aliased from a
// group's shared prefix (0 if the sequence attached no prefix).
func (s *State) SharedPrefixTokens() int { return s.sharedPrefixTokens }

// SlotCount returns the number of slot entries currently allocated
// (populated or not) — an implementation detail exposed for tests.
func (s *State) SlotCount() int { return len(s.slots) }

// Populated reports whether slot i holds a page.
func (s *State) Populated(i int) bool {
	return i < len(s.populated) && s.populated[i]
}

// Slot returns the page at slot i. Callers must check Populated first.
func (s *State) Slot(i int) alloc.PageID { return s.slots[i] }

// grow doubles slot capacity until it covers at least n entries.
func (s *State) grow(n int) {
	if n <= len(s.slots) {
		return
	}
	cap := len(s.slots)
	if cap == 0 {
		cap = initialSlotCapacity
	}
	for cap < n {
		cap *= 2
	}
	newSlots := make([]alloc.PageID, cap)
	newPopulated := make([]bool, cap)
	copy(newSlots, s.slots)
	copy(newPopulated, s.populated)
	s.slots = newSlots
	s.populated = newPopulated
}

// AttachSharedPrefix installs the group's prefix pages, one alias per page,
// starting at slot 0. Called once, during init, before any AppendToken.
func (s *State) AttachSharedPrefix(pages []alloc.PageID, prefixTokens int) {
	s.grow(len(pages))
	for i, p := range pages {
		s.slots[i] = p
		s.populated[i] = true
	}
	s.sharedPrefixTokens = prefixTokens
	s.curTokens = prefixTokens
}

// PageIndexPopulated reports whether the slot covering page index pageIdx
// is already populated, growing the slot vector first if pageIdx falls
// outside it. Must be called with the backend's lock held.
func (s *State) PageIndexPopulated(pageIdx int) bool {
	s.grow(pageIdx + 1)
	return s.populated[pageIdx]
}

// SetSlot installs page id at pageIdx. Must be called with the backend's
// lock held (the slow path of AppendToken).
func (s *State) SetSlot(pageIdx int, id alloc.PageID) {
	s.grow(pageIdx + 1)
	s.slots[pageIdx] = id
	s.populated[pageIdx] = true
}

// IncrementTokens advances the token counter by one. Called without the
// backend lock once the covering slot is known to be populated.
func (s *State) IncrementTokens() { s.curTokens++ }

// Reset clears all slots, releasing each populated page via dec, and zeroes
// the counters. Idempotent: calling Reset on an already-empty state is a
// no-op because no slot is populated.
func (s *State) Reset(dec func(alloc.PageID)) {
	for i, ok := range s.populated {
		if !ok {
			continue
		}
		dec(s.slots[i])
		s.populated[i] = false
	}
	s.curTokens = 0
	s.sharedPrefixTokens = 0
}
