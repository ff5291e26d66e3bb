package testutil

import "sync"

// SequenceSource returns scripted values in order and wraps around.
//
// Implements selector.Source. Safe for concurrent use.
type SequenceSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequenceSource creates a source that yields values in order. With no
// values it always returns 0.
func NewSequenceSource(values ...float64) *SequenceSource {
	return &SequenceSource{values: values}
}

// Float64 returns the next scripted value.
func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Calls returns how many values have been drawn.
func (s *SequenceSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Reset rewinds to the first value.
func (s *SequenceSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
}
