// Package alloc implements the fixed-arena page allocator that backs the
// paged KV-cache simulation: a single contiguous byte arena sliced into
// equal-sized pages, handed out with reference counting, and reclaimed to a
// free-list stack the moment the last reference drops.
//
// The allocator never interprets page contents — only page lifetime is
// modeled. Running out of pages is a fatal capacity fault, not an error to
// retry: this simulator exists to surface the capacity envelope of a
// strategy, not to model eviction under pressure.
package alloc

import (
	"fmt"
	"sync"
)

// PageID identifies one page-sized region of the arena. Page IDs are stable
// for the lifetime of the allocator; they are never reused while referenced.
type PageID uint32

// page is the allocator's private bookkeeping for one arena slot.
type page struct {
	refcount int32
}

// Allocator owns one contiguous arena of num_pages * page_bytes bytes and
// the refcounted descriptors for each page. All free-list and refcount
// mutations are serialized by mu, including increments from an
// already-positive refcount (see IncRef).
type Allocator struct {
	mu sync.Mutex

	pageBytes int
	numPages  int

	arena []byte
	pages []page

	free []PageID // stack discipline: LIFO for cache warmth
}

// New creates an allocator with num_pages = arenaBytes / pageBytes, all
// pages initially free. pageBytes and arenaBytes must be positive.
func New(pageBytes, arenaBytes int) (*Allocator, error) {
	if pageBytes <= 0 || arenaBytes <= 0 {
		return nil, fmt.Errorf("alloc: pageBytes and arenaBytes must be positive, got %d and %d", pageBytes, arenaBytes)
	}
	numPages := arenaBytes / pageBytes
	if numPages <= 0 {
		return nil, fmt.Errorf("alloc: arenaBytes %d too small for pageBytes %d", arenaBytes, pageBytes)
	}

	a := &Allocator{
		pageBytes: pageBytes,
		numPages:  numPages,
		arena:     make([]byte, numPages*pageBytes),
		pages:     make([]page, numPages),
		free:      make([]PageID, numPages),
	}
	for i := 0; i < numPages; i++ {
		a.free[i] = PageID(numPages - 1 - i) // arbitrary order, LIFO pop gives page 0 first
	}
	return a, nil
}

// Alloc pops a free page and sets its refcount to 1. It panics with a
// capacity-fault message if the free-list is empty — out-of-pages is fatal
// by design (§7 of the accompanying specification: no eviction, no retry).
func (a *Allocator) Alloc() PageID {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.free)
	if n == 0 {
		panic(fmt.Sprintf("alloc: out of pages (arena holds %d pages of %d bytes, all in use)", a.numPages, a.pageBytes))
	}
	id := a.free[n-1]
	a.free = a.free[:n-1]
	a.pages[id].refcount = 1
	return id
}

// IncRef increments a page's refcount under mu. The caller must already
// hold at least one reference to the page: the refcount cannot reach zero —
// and therefore cannot be reclaimed — while any holder is alive. IncRef
// takes the lock on every call all the same.
func (a *Allocator) IncRef(id PageID) {
	a.mu.Lock()
	a.pages[id].refcount++
	a.mu.Unlock()
}

// DecRef decrements a page's refcount, returning it to the free pool when
// the count reaches zero. Panics if the page was already at refcount 0 —
// that indicates a bookkeeping bug upstream, per the refcount-underflow
// error kind.
func (a *Allocator) DecRef(id PageID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := &a.pages[id]
	if p.refcount <= 0 {
		panic(fmt.Sprintf("alloc: refcount underflow on page %d", id))
	}
	p.refcount--
	if p.refcount == 0 {
		a.free = append(a.free, id)
	}
}

// PagesInUse returns the number of descriptors with refcount > 0 — the
// global count of physically reserved pages, counting shared pages exactly
// once no matter how many sequences alias them.
func (a *Allocator) PagesInUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numPages - len(a.free)
}

// FreeCount returns the number of pages currently on the free-list.
func (a *Allocator) FreeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.free)
}

// NumPages returns the total page count the arena was sized for.
func (a *Allocator) NumPages() int { return a.numPages }

// PageBytes returns the configured page size in bytes.
func (a *Allocator) PageBytes() int { return a.pageBytes }

// Destroy releases the arena and descriptor table. Afterward the allocator
// holds no pages: PagesInUse and NumPages report 0, and no other method may
// be called.
func (a *Allocator) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.numPages = 0
	a.arena = nil
	a.pages = nil
	a.free = nil
}
