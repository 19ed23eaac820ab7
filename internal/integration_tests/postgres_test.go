//go:build integration

package integrationtests

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"hilo/internal/garment"
	"hilo/internal/identity"
	"hilo/internal/ledger"
	"hilo/internal/market"
	"hilo/internal/material"
	"hilo/internal/product"
	"hilo/internal/provenance"
	"hilo/internal/session"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
	"hilo/pkg/testutil/containers"
)

// PostgresSuite runs the full registry stack against real PostgreSQL: the
// same assertions the in-memory suites make, but exercising row locking,
// the shared id sequence, and transaction rollback.
type PostgresSuite struct {
	suite.Suite
	pg         *containers.PostgresContainer
	identity   *identity.Service
	materials  *material.Service
	products   *product.Service
	garments   *garment.Service
	market     *market.Service
	provenance *provenance.Service
	ctx        context.Context
}

func (s *PostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
}

func (s *PostgresSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.pg.Truncate(s.ctx))

	tx := ledger.NewPostgresTx(s.pg.Pool)
	productStore := product.NewPostgresStore(s.pg.Pool)
	garmentStore := garment.NewPostgresStore(s.pg.Pool)
	tokens := session.NewTokenService("integration-key", time.Hour)

	s.identity = identity.NewService(identity.NewPostgresStore(s.pg.Pool), tokens)
	s.materials = material.NewService(material.NewPostgresStore(s.pg.Pool), s.identity)
	s.products = product.NewService(productStore, s.identity)
	s.garments = garment.NewService(garmentStore, s.identity, s.products, tx)
	s.market = market.NewService(garmentStore, market.NewPostgresBalances(s.pg.Pool), tx)
	s.provenance = provenance.NewService(productStore, garmentStore)
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) register(name string, role domain.Role) domain.AccountID {
	account := domain.NewAccountID()
	_, err := s.identity.Register(s.ctx, account, name, role, "correct-horse-battery")
	s.Require().NoError(err)
	return account
}

func (s *PostgresSuite) TestDuplicateRegistrationKeepsFirstRecord() {
	account := s.register("casey", domain.RoleProducer)

	_, err := s.identity.Register(s.ctx, domain.NewAccountID(), "Casey", domain.RoleTailor, "another-credential")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	resolved, err := s.identity.ResolveAccount(s.ctx, "casey")
	s.Require().NoError(err)
	s.Equal(account, resolved)

	role, err := s.identity.RoleOf(s.ctx, account)
	s.Require().NoError(err)
	s.Equal(domain.RoleProducer, role)
}

func (s *PostgresSuite) TestSupplyChainRoundTrip() {
	producer := s.register("producer-pat", domain.RoleProducer)
	tailor := s.register("tailor-taylor", domain.RoleTailor)
	customer := s.register("customer-cris", domain.RoleCustomer)

	lot, err := s.materials.Produce(s.ctx, producer, material.KindCotton, 100, decimal.NewFromInt(5))
	s.Require().NoError(err)
	s.NotZero(lot.ID)

	origin, err := s.products.Add(s.ctx, producer, "denim batch", 10)
	s.Require().NoError(err)
	_, err = s.products.TransferToTailor(s.ctx, producer, tailor, origin.ID)
	s.Require().NoError(err)
	_, err = s.products.Accept(s.ctx, tailor, origin.ID)
	s.Require().NoError(err)

	price := decimal.NewFromInt(40)
	made, err := s.garments.Add(s.ctx, tailor, "denim jacket", 1, price, origin.ID)
	s.Require().NoError(err)
	s.NotEqual(origin.ID, made.ID)

	_, err = s.garments.SetForSale(s.ctx, tailor, made.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.market.Deposit(s.ctx, customer, decimal.NewFromInt(100)))
	bought, err := s.market.Buy(s.ctx, customer, made.ID, price)
	s.Require().NoError(err)
	s.Equal(domain.StateBought, bought.State)
	s.Equal(customer, bought.Owner)

	sellerBalance, err := s.market.BalanceOf(s.ctx, tailor)
	s.Require().NoError(err)
	s.True(sellerBalance.Equal(price))

	chain, err := s.provenance.Chain(s.ctx, made.ID)
	s.Require().NoError(err)
	s.Require().Len(chain, 2)
	s.Equal(origin.ID, chain[0].TokenID)
	s.Equal(made.ID, chain[1].TokenID)
}

// A failed mint must roll back the origin's consumed mark.
func (s *PostgresSuite) TestGarmentMintRollsBackOriginConsume() {
	producer := s.register("producer-pat", domain.RoleProducer)
	tailor := s.register("tailor-taylor", domain.RoleTailor)

	origin, err := s.products.Add(s.ctx, producer, "batch", 10)
	s.Require().NoError(err)
	_, err = s.products.TransferToTailor(s.ctx, producer, tailor, origin.ID)
	s.Require().NoError(err)
	_, err = s.products.Accept(s.ctx, tailor, origin.ID)
	s.Require().NoError(err)

	// The second Add reuses the origin inside one call sequence: the first
	// consumes it and commits, the second must fail without touching it
	// further.
	_, err = s.garments.Add(s.ctx, tailor, "jacket", 1, decimal.NewFromInt(40), origin.ID)
	s.Require().NoError(err)
	_, err = s.garments.Add(s.ctx, tailor, "second", 1, decimal.NewFromInt(40), origin.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	mine, err := s.garments.TokensOwnedOrCreatedBy(s.ctx, tailor)
	s.Require().NoError(err)
	s.Len(mine, 1)
}

func (s *PostgresSuite) TestBuyLoserKeepsBalance() {
	producer := s.register("producer-pat", domain.RoleProducer)
	tailor := s.register("tailor-taylor", domain.RoleTailor)
	first := s.register("buyer-one", domain.RoleCustomer)
	second := s.register("buyer-two", domain.RoleCustomer)

	origin, err := s.products.Add(s.ctx, producer, "batch", 10)
	s.Require().NoError(err)
	_, err = s.products.TransferToTailor(s.ctx, producer, tailor, origin.ID)
	s.Require().NoError(err)
	_, err = s.products.Accept(s.ctx, tailor, origin.ID)
	s.Require().NoError(err)

	price := decimal.NewFromInt(40)
	made, err := s.garments.Add(s.ctx, tailor, "jacket", 1, price, origin.ID)
	s.Require().NoError(err)
	_, err = s.garments.SetForSale(s.ctx, tailor, made.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.market.Deposit(s.ctx, first, price))
	s.Require().NoError(s.market.Deposit(s.ctx, second, price))

	_, err = s.market.Buy(s.ctx, first, made.ID, price)
	s.Require().NoError(err)

	_, err = s.market.Buy(s.ctx, second, made.ID, price)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	loserBalance, err := s.market.BalanceOf(s.ctx, second)
	s.Require().NoError(err)
	s.True(loserBalance.Equal(price))
}
