package backend

import "sync"

// monoSeq is one sequence's fixed-capacity backing buffer.
type monoSeq struct {
	curTokens int
	backing   []byte // eagerly allocated real bytes, not just a counter
}

// Monolithic is the measurement baseline: every sequence eagerly reserves a
// max_context_tokens-sized buffer regardless of how many tokens it ends up
// producing. It deliberately allocates real bytes rather than just counting
// them, so that resident-set size observed from outside the process matches
// the predicted footprint.
type Monolithic struct {
	cfg Config

	mu        sync.Mutex
	sequences []*monoSeq
}

// NewMonolithic builds a monolithic backend for the given configuration.
func NewMonolithic(cfg Config) (*Monolithic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Monolithic{cfg: cfg}, nil
}

// InitSequence allocates the sequence's full backing buffer eagerly.
func (m *Monolithic) InitSequence(work SequenceWork) SeqID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := SeqID(len(m.sequences))
	m.sequences = append(m.sequences, &monoSeq{
		backing: make([]byte, int64(m.cfg.MaxContextTokens)*m.cfg.BytesPerToken()),
	})
	return id
}

// AppendToken increments the sequence's counter, clamped at the ceiling.
func (m *Monolithic) AppendToken(id SeqID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sequences[id]
	if s.curTokens < m.cfg.MaxContextTokens {
		s.curTokens++
	}
}

// FinishSequence is a no-op: buffers persist until Destroy so that Stats
// continues to observe peak reservation.
func (m *Monolithic) FinishSequence(id SeqID) {}

// Stats returns logical bytes from tokens actually produced, and physical
// bytes as the exact, workload-independent upper bound num_sequences *
// max_context_tokens * bytes_per_token.
func (m *Monolithic) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var logicalTokens int64
	for _, s := range m.sequences {
		logicalTokens += int64(s.curTokens)
	}
	bytesPerToken := m.cfg.BytesPerToken()
	return Stats{
		LogicalTokens: logicalTokens,
		LogicalBytes:  logicalTokens * bytesPerToken,
		PhysicalBytes: int64(len(m.sequences)) * int64(m.cfg.MaxContextTokens) * bytesPerToken,
	}
}

// Destroy drops every sequence's backing buffer.
func (m *Monolithic) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences = nil
}
