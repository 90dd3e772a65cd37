package leads

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu    sync.RWMutex
	leads map[string]Lead
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[string]Lead)}
}

func (s *MemoryStore) Upsert(ctx context.Context, lead Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := s.leads[lead.Email]
	if ok {
		existing.ResumeFilename = lead.ResumeFilename
		existing.UpdatedAt = now
		s.leads[lead.Email] = existing
		return nil
	}
	lead.CreatedAt = now
	lead.UpdatedAt = now
	s.leads[lead.Email] = lead
	return nil
}

func (s *MemoryStore) MarkAnalysisComplete(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[email]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	lead.AnalysisCompleted = true
	lead.AnalysisCompletedAt = &now
	lead.UpdatedAt = now
	s.leads[email] = lead
	return nil
}

// Get returns a copy of the stored lead.
func (s *MemoryStore) Get(email string) (Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[email]
	return lead, ok
}
