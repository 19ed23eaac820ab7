package identity

import (
	"context"
	"strings"
	"sync"

	"hilo/pkg/domain"
	"hilo/pkg/platform/sentinel"
)

// InMemoryStore keeps user records behind a RWMutex with a name index for
// ResolveAccount. Name uniqueness is case-insensitive.
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[domain.AccountID]*User
	byName map[string]domain.AccountID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[domain.AccountID]*User),
		byName: make(map[string]domain.AccountID),
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *InMemoryStore) CreateIfAvailable(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Account]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.byName[nameKey(user.Name)]; exists {
		return sentinel.ErrAlreadyUsed
	}

	stored := *user
	s.users[user.Account] = &stored
	s.byName[nameKey(user.Name)] = user.Account
	return nil
}

func (s *InMemoryStore) FindByAccount(_ context.Context, account domain.AccountID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[account]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byName[nameKey(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.users[account]
	return &copied, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

// Execute runs validate and mutate on the stored record under the write lock,
// so no other operation observes the record between check and change.
func (s *InMemoryStore) Execute(_ context.Context, account domain.AccountID, validate func(*User) error, mutate func(*User)) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[account]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(user); err != nil {
		return nil, err
	}
	mutate(user)
	copied := *user
	return &copied, nil
}
