package memory

import (
	"errors"
	"sync"

	"kanaset/internal/domain"
)

// Storage is an in-memory sample table that checks every image against a fixed shape.
type Storage struct {
	mu      sync.RWMutex
	shape   []int
	samples []domain.Sample
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(shape []int) error {
	if len(shape) == 0 {
		return errors.New("invalid shape")
	}
	for _, d := range shape {
		if d <= 0 {
			return errors.New("invalid shape")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shape = append([]int(nil), shape...)
	s.samples = nil
	return nil
}

func (s *Storage) Append(samples ...domain.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shape == nil {
		return errors.New("storage not initialized")
	}
	for _, smp := range samples {
		if !sameShape(smp.Image.Shape, s.shape) || len(smp.Image.Data) != smp.Image.NumElements() {
			return errors.New("sample shape mismatch")
		}
		if smp.Label < 0 {
			return errors.New("negative label")
		}
	}
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Snapshot returns the samples in insertion order. The slice header is a
// copy; the tensors are shared and must not be modified.
func (s *Storage) Snapshot() []domain.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Sample(nil), s.samples...)
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = nil
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
