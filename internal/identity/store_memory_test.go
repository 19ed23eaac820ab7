package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hilo/pkg/domain"
	"hilo/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) newUser(name string) *User {
	return &User{
		Account:        domain.NewAccountID(),
		Name:           name,
		Role:           domain.RoleProducer,
		CredentialHash: "hash",
		RegisteredAt:   time.Now(),
	}
}

func (s *InMemoryStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds user by account", func() {
		user := s.newUser("eva")
		s.Require().NoError(s.store.CreateIfAvailable(s.ctx, user))

		found, err := s.store.FindByAccount(s.ctx, user.Account)
		s.Require().NoError(err)
		s.Equal(user.Name, found.Name)
	})

	s.Run("finds user by name regardless of case", func() {
		user := s.newUser("Dario")
		s.Require().NoError(s.store.CreateIfAvailable(s.ctx, user))

		found, err := s.store.FindByName(s.ctx, "dario")
		s.Require().NoError(err)
		s.Equal(user.Account, found.Account)
	})

	s.Run("returns ErrNotFound for unknown account", func() {
		_, err := s.store.FindByAccount(s.ctx, domain.NewAccountID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound for unknown name", func() {
		_, err := s.store.FindByName(s.ctx, "nobody")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestUniqueness() {
	s.Run("rejects duplicate name", func() {
		first := s.newUser("natalia")
		second := s.newUser("Natalia")

		s.Require().NoError(s.store.CreateIfAvailable(s.ctx, first))
		s.Require().ErrorIs(s.store.CreateIfAvailable(s.ctx, second), sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects duplicate account", func() {
		first := s.newUser("uno")
		second := s.newUser("dos")
		second.Account = first.Account

		s.Require().NoError(s.store.CreateIfAvailable(s.ctx, first))
		s.Require().ErrorIs(s.store.CreateIfAvailable(s.ctx, second), sentinel.ErrAlreadyUsed)
	})

	s.Run("first record unchanged after rejected duplicate", func() {
		first := s.newUser("ana")
		dup := s.newUser("ana")
		dup.Role = domain.RoleAdmin

		s.Require().NoError(s.store.CreateIfAvailable(s.ctx, first))
		s.Require().Error(s.store.CreateIfAvailable(s.ctx, dup))

		found, err := s.store.FindByName(s.ctx, "ana")
		s.Require().NoError(err)
		s.Equal(first.Account, found.Account)
		s.Equal(domain.RoleProducer, found.Role)
	})
}

func (s *InMemoryStoreSuite) TestExecute() {
	s.Run("mutates under lock and returns copy", func() {
		user := s.newUser("eva")
		s.Require().NoError(s.store.CreateIfAvailable(s.ctx, user))

		updated, err := s.store.Execute(s.ctx, user.Account,
			func(*User) error { return nil },
			func(u *User) { u.SessionActive = true },
		)
		s.Require().NoError(err)
		s.True(updated.SessionActive)

		found, err := s.store.FindByAccount(s.ctx, user.Account)
		s.Require().NoError(err)
		s.True(found.SessionActive)
	})

	s.Run("does not mutate when validate fails", func() {
		user := s.newUser("leo")
		s.Require().NoError(s.store.CreateIfAvailable(s.ctx, user))

		_, err := s.store.Execute(s.ctx, user.Account,
			func(*User) error { return sentinel.ErrInvalidState },
			func(u *User) { u.SessionActive = true },
		)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		found, err := s.store.FindByAccount(s.ctx, user.Account)
		s.Require().NoError(err)
		s.False(found.SessionActive)
	})

	s.Run("returns ErrNotFound for unknown account", func() {
		_, err := s.store.Execute(s.ctx, domain.NewAccountID(),
			func(*User) error { return nil },
			func(*User) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
