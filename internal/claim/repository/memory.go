package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim"
)

// MemoryRepo is an in-memory Repository used by unit tests and local runs
// without MongoDB. It honours the same ordering and conditional-write rules
// as MongoRepo.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*entry
	seq   uint64
	now   func() time.Time
}

type entry struct {
	claim claim.Claim
	seq   uint64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*entry), now: time.Now}
}

func (m *MemoryRepo) Create(_ context.Context, c *claim.Claim) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	initialize(c, uuid.NewString(), m.now().UTC())
	m.seq++
	m.store[c.ID] = &entry{claim: *c, seq: m.seq}
	return c.ID, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*claim.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := e.claim
	return &c, nil
}

func (m *MemoryRepo) ListByEmployee(_ context.Context, employeeID string) ([]*claim.Claim, error) {
	return m.list(func(c *claim.Claim) bool { return c.EmployeeID == employeeID }), nil
}

func (m *MemoryRepo) ListAll(_ context.Context, status claim.Status) ([]*claim.Claim, error) {
	return m.list(func(c *claim.Claim) bool { return status == "" || c.Status == status }), nil
}

// list returns matching claims newest first; insertion order breaks ties.
func (m *MemoryRepo) list(match func(*claim.Claim) bool) []*claim.Claim {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]*entry, 0, len(m.store))
	for _, e := range m.store {
		if match(&e.claim) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.claim.CreatedAt.Equal(b.claim.CreatedAt) {
			return a.claim.CreatedAt.After(b.claim.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*claim.Claim, 0, len(entries))
	for _, e := range entries {
		c := e.claim
		out = append(out, &c)
	}
	return out
}

func (m *MemoryRepo) Update(_ context.Context, id string, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if p.IfStatus != "" && e.claim.Status != p.IfStatus {
		return ErrStatusConflict
	}
	p.apply(&e.claim)
	return nil
}

func (m *MemoryRepo) UpdateProof(_ context.Context, id string, proof claim.Proof) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	e.claim.Proof = proof
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string, ifStatus claim.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if ifStatus != "" && e.claim.Status != ifStatus {
		return ErrStatusConflict
	}
	delete(m.store, id)
	return nil
}
