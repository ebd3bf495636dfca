package session

import (
	"sync"

	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
)

// Store keeps the most recent successful pipeline result. A new result
// replaces the previous one wholesale.
type Store struct {
	mu   sync.RWMutex
	last *entity.PipelineResult
}

func NewStore() *Store {
	return &Store{}
}

// Replace stores res and returns the result it replaced, if any.
func (s *Store) Replace(res *entity.PipelineResult) *entity.PipelineResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.last
	s.last = res
	return prev
}

// Last returns the stored result.
func (s *Store) Last() (*entity.PipelineResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}
