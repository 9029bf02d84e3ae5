package verification

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// MemoryStore keeps codes in process memory. Expired entries are dropped
// lazily on Get and eagerly by Run.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     o.now,
	}
}

// Put stores code for email, replacing any previous code.
func (s *MemoryStore) Put(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[email] = memoryEntry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns the live code for email or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return "", ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, email)
		return "", ErrNotFound
	}
	return e.code, nil
}

// Fail counts a wrong guess against the live code for email.
func (s *MemoryStore) Fail(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok || !s.now().Before(e.expiresAt) {
		return 0, ErrNotFound
	}
	e.attempts++
	s.entries[email] = e
	return e.attempts, nil
}

// Delete removes the code for email. Deleting a missing entry is not an error.
func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, email)
	return nil
}

// Sweep drops every expired entry and reports how many were removed.
func (s *MemoryStore) Sweep(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for email, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, email)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps expired entries every interval until ctx is cancelled.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	runJanitor(ctx, s, interval)
}
