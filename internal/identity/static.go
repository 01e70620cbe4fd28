package identity

import (
	"context"
	"sync"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
)

// Static is an in-memory Source for development and tests.
type Static struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewStatic(users ...models.User) *Static {
	s := &Static{users: make(map[string]models.User, len(users))}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Add registers or replaces u.
func (s *Static) Add(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Static) UserExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *Static) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperrors.New(apperrors.UnknownUser, "user %q does not exist", id)
	}
	return u, nil
}
