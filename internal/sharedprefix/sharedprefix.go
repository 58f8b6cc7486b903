// Package sharedprefix implements the per-group shared-prefix table: a set
// of entries, one per group id, each holding the ordered list of pages that
// encode that group's common prompt prefix. Entries are built lazily, by
// whichever sequence first claims the group, and are immutable afterward.
package sharedprefix

import (
	"sync"

	"kvcachesim/internal/alloc"
)

// Entry is one group's shared-prefix record. Once Initialized is true the
// Pages slice and PrefixTokens are fixed for the lifetime of the backend.
type Entry struct {
	Pages        []alloc.PageID
	PrefixTokens int
	Initialized  bool
}

// Table holds one Entry per group id in [0, numGroups).
type Table struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates a table with numGroups uninitialized entries.
func New(numGroups int) *Table {
	return &Table{entries: make([]Entry, numGroups)}
}

// NumGroups returns the modulus this table was built for.
func (t *Table) NumGroups() int { return len(t.entries) }

// Attach ensures group gid's entry is built for a prefix of prefixTokens
// tokens, i.e. prefixTokens/tokensPerPage pages (building
// it under the table lock if this is the first sequence to touch the
// group), and returns the entry that the caller should alias.
//
// If the entry is already initialized with a different prefix length, the
// caller silently adopts the existing value — a group's prefix is defined
// by the first sequence that claims it; this avoids retroactive splits.
func (t *Table) Attach(a *alloc.Allocator, gid, tokensPerPage, prefixTokens int) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := &t.entries[gid]
	if !e.Initialized {
		pagesNeeded := prefixTokens / tokensPerPage
		pages := make([]alloc.PageID, pagesNeeded)
		for i := 0; i < pagesNeeded; i++ {
			pages[i] = a.Alloc()
		}
		e.Pages = pages
		e.PrefixTokens = prefixTokens
		e.Initialized = true
	}
	return *e
}

// Entries returns a snapshot of every entry, initialized or not; callers
// check Initialized.
func (t *Table) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Destroy releases the table's own reference share on every initialized
// group's prefix pages. The allocator itself is destroyed separately by the
// owning backend.
func (t *Table) Destroy(a *alloc.Allocator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Initialized {
			continue
		}
		for _, p := range e.Pages {
			a.DecRef(p)
		}
		e.Pages = nil
		e.Initialized = false
	}
}
