// Package memory is an in-process storage.Store for tests and single-node
// runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AaronLay10/OrbFi/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]*storage.Draft
	orbs   map[string]*storage.Orb

	now   func() time.Time
	newID func() string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		drafts: make(map[string]*storage.Draft),
		orbs:   make(map[string]*storage.Orb),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

func (s *Store) CreateDraft(_ context.Context, d storage.NewDraft) (*storage.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if _, exists := s.drafts[id]; exists {
		return nil, storage.ErrDuplicateKey
	}

	name := d.Name
	if name == "" {
		name = storage.DefaultDraftName(id)
	}
	now := s.now()
	draft := &storage.Draft{
		ID:           id,
		Name:         name,
		Prompt:       d.Prompt,
		Template:     d.Template,
		Document:     d.Document,
		CreatedAt:    now,
		LastModified: now,
	}
	s.drafts[id] = draft

	draftCopy := *draft
	return &draftCopy, nil
}

func (s *Store) UpdateDraft(_ context.Context, id string, u storage.DraftUpdate) (*storage.Draft, error) {
	if u.Name != nil && *u.Name == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.drafts[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Document != nil {
		d.Document = *u.Document
	}
	d.LastModified = s.now()

	draftCopy := *d
	return &draftCopy, nil
}

func (s *Store) GetDraft(_ context.Context, id string) (*storage.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.drafts[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	draftCopy := *d
	return &draftCopy, nil
}

func (s *Store) ListDrafts(_ context.Context) ([]*storage.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		draftCopy := *d
		result = append(result, &draftCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DeleteDraft(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drafts[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.drafts, id)
	return nil
}

func (s *Store) Publish(_ context.Context, draftID string, document *string) (*storage.Orb, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.drafts[draftID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	id := s.newID()
	if _, exists := s.orbs[id]; exists {
		return nil, storage.ErrDuplicateKey
	}

	orb := &storage.Orb{
		ID:           id,
		Name:         d.Name,
		Emoji:        storage.RandomEmoji(),
		Status:       storage.OrbActive,
		Prompt:       d.Prompt,
		Template:     d.Template,
		Document:     storage.ResolveDocument(d, document),
		CreatedAt:    d.CreatedAt,
		LastModified: s.now(),
	}
	s.orbs[id] = orb
	delete(s.drafts, draftID)

	orbCopy := *orb
	return &orbCopy, nil
}

func (s *Store) GetOrb(_ context.Context, id string) (*storage.Orb, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.orbs[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	orbCopy := *o
	return &orbCopy, nil
}

func (s *Store) ListOrbs(_ context.Context) ([]*storage.Orb, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.Orb, 0, len(s.orbs))
	for _, o := range s.orbs {
		orbCopy := *o
		result = append(result, &orbCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) UpdateOrb(_ context.Context, id string, u storage.OrbUpdate) (*storage.Orb, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, storage.ErrInvalidInput
	}
	if u.Name != nil && *u.Name == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.orbs[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if u.Name != nil {
		o.Name = *u.Name
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.Performance != nil {
		o.Performance = *u.Performance
	}
	o.LastModified = s.now()

	orbCopy := *o
	return &orbCopy, nil
}

func (s *Store) DeleteOrb(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orbs[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.orbs, id)
	return nil
}

func (s *Store) Ping(_ context.Context) error { return nil }
