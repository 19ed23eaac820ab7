package product

import (
	"context"
	"sync"

	"hilo/internal/ledger"
	"hilo/pkg/domain"
	"hilo/pkg/platform/sentinel"
)

// InMemoryStore keeps product tokens behind a RWMutex. Ids come from the
// ledger-wide sequence. The account index is append-only: it records every
// account that created or ever owned a token, which is what the audit views
// need.
type InMemoryStore struct {
	mu        sync.RWMutex
	seq       *ledger.TokenSequence
	tokens    map[domain.TokenID]*Token
	byAccount map[domain.AccountID][]domain.TokenID
}

func NewInMemoryStore(seq *ledger.TokenSequence) *InMemoryStore {
	return &InMemoryStore{
		seq:       seq,
		tokens:    make(map[domain.TokenID]*Token),
		byAccount: make(map[domain.AccountID][]domain.TokenID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token.ID = s.seq.Next()

	stored := *token
	s.tokens[token.ID] = &stored
	s.index(token.Creator, token.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.TokenID) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (s *InMemoryStore) ListByAccount(_ context.Context, account domain.AccountID) ([]*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byAccount[account]
	tokens := make([]*Token, 0, len(ids))
	for _, id := range ids {
		copied := *s.tokens[id]
		tokens = append(tokens, &copied)
	}
	return tokens, nil
}

// Execute runs validate and mutate under the write lock. When the owner
// changes, the new owner is added to the historical index.
func (s *InMemoryStore) Execute(_ context.Context, id domain.TokenID, validate func(*Token) error, mutate func(*Token)) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(token); err != nil {
		return nil, err
	}
	previousOwner := token.Owner
	mutate(token)
	if token.Owner != previousOwner {
		s.index(token.Owner, id)
	}
	copied := *token
	return &copied, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens), nil
}

// index records the account in the historical index exactly once per token.
func (s *InMemoryStore) index(account domain.AccountID, id domain.TokenID) {
	for _, existing := range s.byAccount[account] {
		if existing == id {
			return
		}
	}
	s.byAccount[account] = append(s.byAccount[account], id)
}
