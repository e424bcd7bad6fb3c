package match

import (
	"context"
	"sync"
)

// ResultStore persists one MatchResult per person entry.
//
// SaveAutomatic must be atomic with respect to SaveManual: it never
// replaces a user decision unless the stored fingerprint is set and differs
// from the new one. It returns whichever result is stored afterwards.
type ResultStore interface {
	Get(ctx context.Context, personEntryID string) (MatchResult, error)
	// Ensure stores r only if no result exists yet and returns the stored one
	Ensure(ctx context.Context, r MatchResult) (MatchResult, error)
	SaveAutomatic(ctx context.Context, r MatchResult) (MatchResult, error)
	SaveManual(ctx context.Context, r MatchResult) (MatchResult, error)
	Delete(ctx context.Context, personEntryID string) error
}

// AutomaticMayReplace is the override rule shared by result stores: a
// user decision stands until the person entry it was made for changes.
func AutomaticMayReplace(existing MatchResult, fingerprint string) bool {
	if !existing.UserDecided() {
		return true
	}
	return existing.EntryFingerprint != "" && existing.EntryFingerprint != fingerprint
}

// MemoryResultStore is a ResultStore held in process memory
type MemoryResultStore struct {
	mu      sync.Mutex
	results map[string]MatchResult
}

// NewMemoryResultStore creates an empty store
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{results: make(map[string]MatchResult)}
}

func (m *MemoryResultStore) Get(ctx context.Context, personEntryID string) (MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[personEntryID]
	if !ok {
		return MatchResult{}, ErrResultNotFound
	}
	return copyResult(r), nil
}

func (m *MemoryResultStore) Ensure(ctx context.Context, r MatchResult) (MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.results[r.PersonEntryID]; ok {
		return copyResult(existing), nil
	}
	m.results[r.PersonEntryID] = copyResult(r)
	return r, nil
}

func (m *MemoryResultStore) SaveAutomatic(ctx context.Context, r MatchResult) (MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return MatchResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.results[r.PersonEntryID]; ok && !AutomaticMayReplace(existing, r.EntryFingerprint) {
		return copyResult(existing), nil
	}
	m.results[r.PersonEntryID] = copyResult(r)
	return r, nil
}

func (m *MemoryResultStore) SaveManual(ctx context.Context, r MatchResult) (MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.PersonEntryID] = copyResult(r)
	return r, nil
}

func (m *MemoryResultStore) Delete(ctx context.Context, personEntryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[personEntryID]; !ok {
		return ErrResultNotFound
	}
	delete(m.results, personEntryID)
	return nil
}

// copyResult detaches the candidate slice so callers cannot mutate stored state
func copyResult(r MatchResult) MatchResult {
	if r.Candidates != nil {
		r.Candidates = append([]Candidate(nil), r.Candidates...)
	}
	return r
}
