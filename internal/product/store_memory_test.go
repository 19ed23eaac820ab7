package product_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hilo/internal/ledger"
	"hilo/internal/product"
	"hilo/pkg/domain"
	"hilo/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *product.InMemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = product.NewInMemoryStore(ledger.NewTokenSequence())
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) create(creator domain.AccountID) *product.Token {
	token, err := product.NewToken("lot", 5, creator, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, token))
	return token
}

func (s *MemoryStoreSuite) TestCreateAssignsIDsFromOne() {
	creator := domain.NewAccountID()
	first := s.create(creator)
	second := s.create(creator)
	s.EqualValues(1, first.ID)
	s.EqualValues(2, second.ID)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *MemoryStoreSuite) TestFindByIDReturnsCopies() {
	creator := domain.NewAccountID()
	token := s.create(creator)

	got, err := s.store.FindByID(s.ctx, token.ID)
	s.Require().NoError(err)
	got.Name = "mutated"

	again, err := s.store.FindByID(s.ctx, token.ID)
	s.Require().NoError(err)
	s.Equal("lot", again.Name)
}

func (s *MemoryStoreSuite) TestFindByIDUnknown() {
	_, err := s.store.FindByID(s.ctx, domain.TokenID(42))
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *MemoryStoreSuite) TestExecuteKeepsHistoricalIndex() {
	creator := domain.NewAccountID()
	next := domain.NewAccountID()
	token := s.create(creator)

	_, err := s.store.Execute(s.ctx, token.ID,
		func(t *product.Token) error { return nil },
		func(t *product.Token) {
			t.Owner = next
			t.State = domain.StatePending
		},
	)
	s.Require().NoError(err)

	creatorTokens, err := s.store.ListByAccount(s.ctx, creator)
	s.Require().NoError(err)
	s.Len(creatorTokens, 1)

	ownerTokens, err := s.store.ListByAccount(s.ctx, next)
	s.Require().NoError(err)
	s.Len(ownerTokens, 1)
	s.Equal(domain.StatePending, ownerTokens[0].State)
}

func (s *MemoryStoreSuite) TestExecuteValidateFailureLeavesRecordUntouched() {
	creator := domain.NewAccountID()
	token := s.create(creator)

	boom := errors.New("boom")
	_, err := s.store.Execute(s.ctx, token.ID,
		func(t *product.Token) error { return boom },
		func(t *product.Token) { t.State = domain.StateDeleted },
	)
	s.Require().ErrorIs(err, boom)

	got, err := s.store.FindByID(s.ctx, token.ID)
	s.Require().NoError(err)
	s.Equal(domain.StateCreated, got.State)
}
