package medication

import (
	"fmt"
	"sync"
	"time"

	contractx "github.com/careloop/health-coach/agent/contract"
)

// Store keeps medication records in memory, keyed by normalized name.
// It is the only authoritative copy; everything else (REST responses, the
// client cache) derives from it. Records are immutable once created and the
// store lives exactly as long as the process.
type Store struct {
	mu      sync.Mutex
	records map[string]contractx.MedicationRecord
	order   []string

	now func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock overrides the creation-timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		records: make(map[string]contractx.MedicationRecord, 8),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Upsert normalizes name and creates the record on first sight. A second
// write for the same normalized name is a no-op that returns the stored
// record unchanged, CreatedAt included.
func (s *Store) Upsert(name string) (contractx.MedicationRecord, error) {
	normalized := contractx.NormalizeMedicationName(name)
	if normalized == "" {
		return contractx.MedicationRecord{}, fmt.Errorf("%w: medication name is empty", contractx.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[normalized]; ok {
		return existing, nil
	}

	record := contractx.MedicationRecord{
		Name:      normalized,
		Status:    contractx.StatusSaved,
		CreatedAt: s.now().UTC(),
	}
	s.records[normalized] = record
	s.order = append(s.order, normalized)
	return record, nil
}

// List returns a snapshot of all records in insertion order. Callers must
// re-call to observe later writes.
func (s *Store) List() []contractx.MedicationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]contractx.MedicationRecord, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.records[key])
	}
	return out
}

// Remove deletes the record matching the normalized name. Removing an
// absent name is a no-op reported as deleted=false, never an error.
func (s *Store) Remove(name string) bool {
	normalized := contractx.NormalizeMedicationName(name)
	if normalized == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[normalized]; !ok {
		return false
	}
	delete(s.records, normalized)
	for i, key := range s.order {
		if key == normalized {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every record and returns the number removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.records)
	s.records = make(map[string]contractx.MedicationRecord, 8)
	s.order = nil
	return count
}

var _ contractx.MedicationStore = (*Store)(nil)
