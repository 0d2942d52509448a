package quota

import (
	"context"
	"sync"

	"github.com/briefly/briefly/internal/model"
)

// MemoryStore is an in-memory Store keeping one mutex per user id, so
// admissions for one user serialize while different users proceed in
// parallel. It backs tests and single-process deployments; production
// uses the Postgres store, which takes a row lock instead.
type MemoryStore struct {
	mu      sync.Mutex // guards records and locks maps
	records map[string]*model.User
	locks   map[string]*sync.Mutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*model.User),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Put inserts or replaces a user record.
func (s *MemoryStore) Put(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[u.ID] = u.Clone()
}

// Get returns a snapshot of a user record.
func (s *MemoryStore) Get(id string) (*model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Update implements Store. fn operates on a private copy; the copy
// replaces the stored record only when fn reports save=true, so a
// rejected request never mutates state.
func (s *MemoryStore) Update(ctx context.Context, userID string, fn func(rec *model.User) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	rec, ok := s.records[userID]
	s.mu.Unlock()
	if !ok {
		return ErrUserNotFound
	}

	work := rec.Clone()
	save, err := fn(work)
	if save {
		s.mu.Lock()
		s.records[userID] = work
		s.mu.Unlock()
	}
	return err
}

func (s *MemoryStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
