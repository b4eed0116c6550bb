package memory

import (
	"sync"

	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// Store implements ports.Store in memory.
// Safe for concurrent use.
type Store struct {
	slots []*domain.Result
	mu    sync.RWMutex
}

var _ ports.Store = (*Store)(nil)

// NewStore creates a store with an empty root slot.
func NewStore() *Store {
	return &Store{
		slots: []*domain.Result{nil},
	}
}

// IsValid reports whether a result can be displayed: no error, a row collection,
// axis dimensions and header info must all be present.
func (s *Store) IsValid(result *domain.Result) bool {
	if result == nil || result.Error != "" {
		return false
	}
	return result.DataArray != nil && result.Dimensions != nil && result.Info != nil
}

// SetData replaces the result of the top slot.
func (s *Store) SetData(result *domain.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[len(s.slots)-1] = result
}

// Data returns the result of the top slot.
func (s *Store) Data() *domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[len(s.slots)-1]
}

// PushData opens a new slot holding the current result until SetData replaces it.
func (s *Store) PushData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = append(s.slots, s.slots[len(s.slots)-1])
}

// PopData drops the top slot. The root slot is kept.
func (s *Store) PopData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slots) < 2 {
		return
	}
	s.slots[len(s.slots)-1] = nil
	s.slots = s.slots[:len(s.slots)-1]
}

// Depth returns the number of slots.
func (s *Store) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}
