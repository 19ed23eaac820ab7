package market_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"hilo/internal/garment"
	"hilo/internal/ledger"
	"hilo/internal/market"
	"hilo/internal/product"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

type stubRoles map[domain.AccountID]domain.Role

func (r stubRoles) RoleOf(_ context.Context, account domain.AccountID) (domain.Role, error) {
	role, ok := r[account]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown account")
	}
	return role, nil
}

type ServiceSuite struct {
	suite.Suite
	svc      *market.Service
	garments *garment.Service
	products *product.Service
	producer domain.AccountID
	tailor   domain.AccountID
	buyer    domain.AccountID
	ctx      context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.producer = domain.NewAccountID()
	s.tailor = domain.NewAccountID()
	s.buyer = domain.NewAccountID()
	roles := stubRoles{
		s.producer: domain.RoleProducer,
		s.tailor:   domain.RoleTailor,
		s.buyer:    domain.RoleCustomer,
	}

	tx := ledger.NewMemoryTx()
	seq := ledger.NewTokenSequence()
	garmentStore := garment.NewInMemoryStore(seq)
	s.products = product.NewService(product.NewInMemoryStore(seq), roles)
	s.garments = garment.NewService(garmentStore, roles, s.products, tx)
	s.svc = market.NewService(garmentStore, market.NewInMemoryBalances(), tx)
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// listedGarment mints a garment through the full pipeline and lists it at
// the given price.
func (s *ServiceSuite) listedGarment(price decimal.Decimal) *garment.Token {
	origin, err := s.products.Add(s.ctx, s.producer, "fabric", 10)
	s.Require().NoError(err)
	_, err = s.products.TransferToTailor(s.ctx, s.producer, s.tailor, origin.ID)
	s.Require().NoError(err)
	_, err = s.products.Accept(s.ctx, s.tailor, origin.ID)
	s.Require().NoError(err)

	token, err := s.garments.Add(s.ctx, s.tailor, "jacket", 1, price, origin.ID)
	s.Require().NoError(err)
	listed, err := s.garments.SetForSale(s.ctx, s.tailor, token.ID)
	s.Require().NoError(err)
	return listed
}

func (s *ServiceSuite) fund(account domain.AccountID, amount int64) {
	s.Require().NoError(s.svc.Deposit(s.ctx, account, decimal.NewFromInt(amount)))
}

func (s *ServiceSuite) TestBuy() {
	price := decimal.NewFromInt(40)

	s.Run("moves ownership, state and money together", func() {
		token := s.listedGarment(price)
		s.fund(s.buyer, 100)

		bought, err := s.svc.Buy(s.ctx, s.buyer, token.ID, price)
		s.Require().NoError(err)
		s.Equal(domain.StateBought, bought.State)
		s.Equal(s.buyer, bought.Owner)

		buyerBalance, err := s.svc.BalanceOf(s.ctx, s.buyer)
		s.Require().NoError(err)
		s.True(buyerBalance.Equal(decimal.NewFromInt(60)))

		sellerBalance, err := s.svc.BalanceOf(s.ctx, s.tailor)
		s.Require().NoError(err)
		s.True(sellerBalance.Equal(price))
	})

	s.Run("wrong payment fails and changes nothing", func() {
		token := s.listedGarment(price)
		s.fund(s.buyer, 100)
		before, err := s.svc.BalanceOf(s.ctx, s.buyer)
		s.Require().NoError(err)

		_, err = s.svc.Buy(s.ctx, s.buyer, token.ID, decimal.NewFromInt(39))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePayment))

		after, err := s.svc.BalanceOf(s.ctx, s.buyer)
		s.Require().NoError(err)
		s.True(before.Equal(after))

		current, err := s.garments.Get(s.ctx, token.ID, s.tailor)
		s.Require().NoError(err)
		s.Equal(domain.StateForSale, current.State)
		s.Equal(s.tailor, current.Owner)
	})

	s.Run("uncovered payment fails with a payment error", func() {
		token := s.listedGarment(price)
		broke := domain.NewAccountID()
		_, err := s.svc.Buy(s.ctx, broke, token.ID, price)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePayment))
	})

	s.Run("unlisted tokens cannot be bought", func() {
		origin, err := s.products.Add(s.ctx, s.producer, "fabric", 10)
		s.Require().NoError(err)
		_, err = s.products.TransferToTailor(s.ctx, s.producer, s.tailor, origin.ID)
		s.Require().NoError(err)
		_, err = s.products.Accept(s.ctx, s.tailor, origin.ID)
		s.Require().NoError(err)
		token, err := s.garments.Add(s.ctx, s.tailor, "jacket", 1, price, origin.ID)
		s.Require().NoError(err)

		s.fund(s.buyer, 100)
		_, err = s.svc.Buy(s.ctx, s.buyer, token.ID, price)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unknown tokens are not found", func() {
		_, err := s.svc.Buy(s.ctx, s.buyer, domain.TokenID(9999), price)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("a bought token cannot be bought again", func() {
		token := s.listedGarment(price)
		s.fund(s.buyer, 100)
		_, err := s.svc.Buy(s.ctx, s.buyer, token.ID, price)
		s.Require().NoError(err)

		_, err = s.svc.Buy(s.ctx, s.buyer, token.ID, price)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

// Racing buyers: exactly one wins, the seller is credited exactly once, and
// every loser keeps their full balance.
func (s *ServiceSuite) TestConcurrentBuyers() {
	price := decimal.NewFromInt(40)
	token := s.listedGarment(price)

	const buyers = 8
	accounts := make([]domain.AccountID, buyers)
	for i := range accounts {
		accounts[i] = domain.NewAccountID()
		s.fund(accounts[i], 40)
	}

	var wins, stateLosses atomic.Int64
	var g errgroup.Group
	for _, account := range accounts {
		g.Go(func() error {
			_, err := s.svc.Buy(s.ctx, account, token.ID, price)
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvalidState):
				stateLosses.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.EqualValues(1, wins.Load())
	s.EqualValues(buyers-1, stateLosses.Load())

	sellerBalance, err := s.svc.BalanceOf(s.ctx, s.tailor)
	s.Require().NoError(err)
	s.True(sellerBalance.Equal(price))

	var debited int
	for _, account := range accounts {
		balance, err := s.svc.BalanceOf(s.ctx, account)
		s.Require().NoError(err)
		if balance.IsZero() {
			debited++
		} else {
			s.True(balance.Equal(price))
		}
	}
	s.Equal(1, debited)
}

func (s *ServiceSuite) TestDeposit() {
	s.Run("accumulates", func() {
		s.fund(s.buyer, 10)
		s.fund(s.buyer, 15)
		balance, err := s.svc.BalanceOf(s.ctx, s.buyer)
		s.Require().NoError(err)
		s.True(balance.Equal(decimal.NewFromInt(25)))
	})

	s.Run("rejects non-positive amounts", func() {
		err := s.svc.Deposit(s.ctx, s.buyer, decimal.Zero)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown accounts read zero", func() {
		balance, err := s.svc.BalanceOf(s.ctx, domain.NewAccountID())
		s.Require().NoError(err)
		s.True(balance.IsZero())
	})
}
