package market

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"hilo/pkg/domain"
)

// InMemoryBalances keeps account balances behind a mutex. Unknown accounts
// read as zero.
type InMemoryBalances struct {
	mu       sync.RWMutex
	balances map[domain.AccountID]decimal.Decimal
}

func NewInMemoryBalances() *InMemoryBalances {
	return &InMemoryBalances{balances: make(map[domain.AccountID]decimal.Decimal)}
}

func (s *InMemoryBalances) BalanceOf(_ context.Context, account domain.AccountID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *InMemoryBalances) Credit(_ context.Context, account domain.AccountID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] = s.balances[account].Add(amount)
	return nil
}

func (s *InMemoryBalances) Debit(_ context.Context, account domain.AccountID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.balances[account]
	if current.LessThan(amount) {
		return ErrInsufficientFunds
	}
	s.balances[account] = current.Sub(amount)
	return nil
}
