package subscriber

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mx-space/landing/internal/models"
)

// MemoryStore keeps subscribers in a map. It backs local runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*models.Subscriber
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]*models.Subscriber), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, email string) (*models.Subscriber, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[email]; ok {
		return nil, ErrDuplicate
	}
	sub := models.NewSubscriber(email, s.now())
	s.subs[email] = sub
	out := *sub
	return &out, nil
}

func (s *MemoryStore) FindAwaitingLaunch(_ context.Context) ([]models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.IsAwaitingLaunch {
			out = append(out, *sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[models.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *sub
	return &out, nil
}

func (s *MemoryStore) MarkActive(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[models.NormalizeEmail(email)]
	if !ok {
		return ErrNotFound
	}
	sub.IsAwaitingLaunch = false
	sub.FollowUpSent = true
	sub.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) (bool, error) {
	email = models.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[email]; !ok {
		return false, nil
	}
	delete(s.subs, email)
	return true, nil
}

func (s *MemoryStore) CountActive(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, sub := range s.subs {
		if !sub.IsAwaitingLaunch {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored subscribers.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
