package backend

import (
	"sync"

	"kvcachesim/internal/alloc"
	"kvcachesim/internal/pageseq"
	"kvcachesim/internal/sharedprefix"
)

// Paged is the core backend under test: a fixed arena sliced into pages,
// allocated lazily as each sequence's token stream crosses a page boundary,
// with multiple sequences able to alias a group's shared-prefix pages.
//
// sequences is pre-sized to cfg.NumSequences at construction and never
// reallocated afterward: once a seq_id is issued its slot's address is
// stable for the backend's lifetime, so AppendToken and FinishSequence can
// index it without taking mu (they only ever touch their own sequence's
// own goroutine, per workload.Run's one-goroutine-per-sequence contract).
type Paged struct {
	cfg Config

	mu        sync.Mutex
	allocator *alloc.Allocator
	groups    *sharedprefix.Table
	sequences []*pageseq.State
	nextID    int
}

// NewPaged builds a paged backend for the given configuration.
func NewPaged(cfg Config) (*Paged, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := alloc.New(int(cfg.PageBytes()), cfg.ArenaBytes)
	if err != nil {
		return nil, err
	}
	return &Paged{
		cfg:       cfg,
		allocator: a,
		groups:    sharedprefix.New(cfg.NumGroups),
		sequences: make([]*pageseq.State, cfg.NumSequences),
	}, nil
}

// InitSequence implements §4.4: claims the next pre-sized sequence slot,
// optionally attaches a group's shared prefix, and returns the new
// sequence's id.
func (p *Paged) InitSequence(work SequenceWork) SeqID {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nextID >= len(p.sequences) {
		panic("backend: InitSequence called more times than cfg.NumSequences")
	}
	id := SeqID(p.nextID)
	p.nextID++

	seq := pageseq.New()
	p.sequences[id] = seq

	sharedTokens := 0
	if work.SharedPromptID >= 0 && p.cfg.NumGroups > 0 && work.SharedPromptTokens > 0 {
		sharedTokens = (work.SharedPromptTokens / p.cfg.TokensPerPage) * p.cfg.TokensPerPage
	}
	if sharedTokens > 0 {
		gid := work.SharedPromptID % p.groups.NumGroups()
		entry := p.groups.Attach(p.allocator, gid, p.cfg.TokensPerPage, sharedTokens)
		for _, page := range entry.Pages {
			p.allocator.IncRef(page)
		}
		seq.AttachSharedPrefix(entry.Pages, entry.PrefixTokens)
	}

	return id
}

// AppendToken implements §4.4's lock-free common path / lock-held slow
// path: most calls only need to bump the sequence's own counter; a fresh
// page is allocated under the backend lock only when a page boundary is
// crossed for the first time.
func (p *Paged) AppendToken(id SeqID) {
	seq := p.sequences[id]

	idx := seq.CurTokens()
	if idx >= p.cfg.MaxContextTokens {
		return
	}
	pageIdx := idx / p.cfg.TokensPerPage

	if pageIdx < seq.SlotCount() && seq.Populated(pageIdx) {
		seq.IncrementTokens()
		return
	}

	p.mu.Lock()
	if !seq.PageIndexPopulated(pageIdx) {
		page := p.allocator.Alloc()
		seq.SetSlot(pageIdx, page)
	}
	p.mu.Unlock()

	seq.IncrementTokens()
}

// FinishSequence releases every populated slot's page and resets the
// sequence's counters. Idempotent: a second call is a no-op because all
// slots are already empty.
func (p *Paged) FinishSequence(id SeqID) {
	seq := p.sequences[id]
	seq.Reset(p.allocator.DecRef)
}

// Stats implements §4.4: logical bytes from the sum of live token counts,
// physical bytes from the allocator's global in-use count so shared pages
// contribute exactly once.
func (p *Paged) Stats() Stats {
	p.mu.Lock()
	var logicalTokens int64
	for _, seq := range p.sequences {
		if seq == nil {
			continue
		}
		logicalTokens += int64(seq.CurTokens())
	}
	p.mu.Unlock()

	bytesPerToken := p.cfg.BytesPerToken()
	return Stats{
		LogicalTokens: logicalTokens,
		LogicalBytes:  logicalTokens * bytesPerToken,
		PhysicalBytes: int64(p.allocator.PagesInUse()) * p.cfg.PageBytes(),
	}
}

// Destroy finishes every sequence, releases the shared-prefix table's own
// page shares, and tears down the allocator's arena.
func (p *Paged) Destroy() {
	p.mu.Lock()
	seqs := p.sequences
	p.mu.Unlock()

	for _, seq := range seqs {
		if seq == nil {
			continue
		}
		seq.Reset(p.allocator.DecRef)
	}
	p.groups.Destroy(p.allocator)
	p.allocator.Destroy()
}

// PagesInUse exposes the allocator's live page count, for tests.
func (p *Paged) PagesInUse() int { return p.allocator.PagesInUse() }

// GroupPageCounts reports, for every shared-prefix group that has been
// built, how many pages its prefix occupies — a debug/diagnostic surface
// over the shared-prefix table's Entries(), exposed to -v logging in
// cmd/kvsim.
func (p *Paged) GroupPageCounts() []int {
	var counts []int
	for _, e := range p.groups.Entries() {
		if e.Initialized {
			counts = append(counts, len(e.Pages))
		}
	}
	return counts
}
