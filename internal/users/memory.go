package users

import (
	"context"
	"sync"
	"time"
)

// MemoryUserRepository keeps profiles in a map. It enforces the same batch
// limit as the Mongo repository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	store map[string]User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{store: map[string]User{}}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[u.UID]; ok {
		return ErrExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.store[u.UID] = *u
	return nil
}

func (r *MemoryUserRepository) GetByUID(_ context.Context, uid string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.store[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByUIDs(_ context.Context, uids []string) ([]*User, error) {
	if len(uids) > MaxLookupBatch {
		return nil, ErrBatchTooLarge
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*User{}
	for _, id := range uids {
		if u, ok := r.store[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}
