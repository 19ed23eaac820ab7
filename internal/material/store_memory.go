package material

import (
	"context"
	"sync"

	"hilo/pkg/domain"
)

// InMemoryStore keeps lots behind a RWMutex with a producer index. Ids are
// assigned sequentially under the write lock and never reused.
type InMemoryStore struct {
	mu         sync.RWMutex
	nextID     domain.TokenID
	lots       map[domain.TokenID]*Lot
	byProducer map[domain.AccountID][]domain.TokenID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextID:     1,
		lots:       make(map[domain.TokenID]*Lot),
		byProducer: make(map[domain.AccountID][]domain.TokenID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, lot *Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot.ID = s.nextID
	s.nextID++

	stored := *lot
	s.lots[lot.ID] = &stored
	s.byProducer[lot.Producer] = append(s.byProducer[lot.Producer], lot.ID)
	return nil
}

func (s *InMemoryStore) ListByProducer(_ context.Context, producer domain.AccountID) ([]*Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byProducer[producer]
	lots := make([]*Lot, 0, len(ids))
	for _, id := range ids {
		copied := *s.lots[id]
		lots = append(lots, &copied)
	}
	return lots, nil
}
