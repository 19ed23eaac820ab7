package garment

import (
	"context"
	"slices"
	"sync"

	"hilo/internal/ledger"
	"hilo/pkg/domain"
	"hilo/pkg/platform/sentinel"
)

// InMemoryStore keeps garment tokens behind a RWMutex with an append-only
// account index, mirroring the product store. Ids come from the ledger-wide
// sequence.
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

func (s *InMemoryStore) ListForSale(_ context.Context) ([]*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var listed []*Token
	for _, token := range s.tokens {
		if token.State != domain.StateForSale {
			continue
		}
		copied := *token
		listed = append(listed, &copied)
	}
	slices.SortFunc(listed, func(a, b *Token) int {
		return int(a.ID) - int(b.ID)
	})
	return listed, nil
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

func (s *InMemoryStore) index(account domain.AccountID, id domain.TokenID) {
	for _, existing := range s.byAccount[account] {
		if existing == id {
			return
		}
	}
	s.byAccount[account] = append(s.byAccount[account], id)
}
