package provenance_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"hilo/internal/garment"
	"hilo/internal/ledger"
	"hilo/internal/product"
	"hilo/internal/provenance"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
	"hilo/pkg/platform/sentinel"
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
	svc      *provenance.Service
	products *product.Service
	garments *garment.Service
	producer domain.AccountID
	tailor   domain.AccountID
	ctx      context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.producer = domain.NewAccountID()
	s.tailor = domain.NewAccountID()
	roles := stubRoles{
		s.producer: domain.RoleProducer,
		s.tailor:   domain.RoleTailor,
	}

	seq := ledger.NewTokenSequence()
	productStore := product.NewInMemoryStore(seq)
	garmentStore := garment.NewInMemoryStore(seq)
	s.products = product.NewService(productStore, roles)
	s.garments = garment.NewService(garmentStore, roles, s.products, ledger.NewMemoryTx())
	s.svc = provenance.NewService(productStore, garmentStore)
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// garmentFromNewOrigin runs the full pipeline: product mint, transfer,
// accept, garment mint.
func (s *ServiceSuite) garmentFromNewOrigin() (origin *product.Token, made *garment.Token) {
	origin, err := s.products.Add(s.ctx, s.producer, "fabric", 10)
	s.Require().NoError(err)
	_, err = s.products.TransferToTailor(s.ctx, s.producer, s.tailor, origin.ID)
	s.Require().NoError(err)
	_, err = s.products.Accept(s.ctx, s.tailor, origin.ID)
	s.Require().NoError(err)
	made, err = s.garments.Add(s.ctx, s.tailor, "jacket", 1, decimal.NewFromInt(40), origin.ID)
	s.Require().NoError(err)
	return origin, made
}

func (s *ServiceSuite) TestTrace() {
	s.Run("product record has origin zero", func() {
		token, err := s.products.Add(s.ctx, s.producer, "fabric", 10)
		s.Require().NoError(err)

		record, err := s.svc.Trace(s.ctx, token.ID)
		s.Require().NoError(err)
		s.Equal(token.ID, record.TokenID)
		s.Equal(s.producer, record.CreatedBy)
		s.EqualValues(0, record.Origin)
		s.Equal(domain.StateCreated, record.State)
	})

	s.Run("garment record carries its origin link", func() {
		origin, made := s.garmentFromNewOrigin()

		record, err := s.svc.Trace(s.ctx, made.ID)
		s.Require().NoError(err)
		s.Equal(made.ID, record.TokenID)
		s.Equal(origin.ID, record.Origin)
		s.Equal(s.tailor, record.CreatedBy)
	})

	s.Run("unknown ids are not found", func() {
		_, err := s.svc.Trace(s.ctx, domain.TokenID(9999))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestChain() {
	s.Run("root comes first, queried token last", func() {
		origin, made := s.garmentFromNewOrigin()

		chain, err := s.svc.Chain(s.ctx, made.ID)
		s.Require().NoError(err)
		s.Require().Len(chain, 2)
		s.Equal(origin.ID, chain[0].TokenID)
		s.EqualValues(0, chain[0].Origin)
		s.Equal(made.ID, chain[1].TokenID)
		s.Equal(origin.ID, chain[1].Origin)
	})

	s.Run("a root token chains to itself alone", func() {
		token, err := s.products.Add(s.ctx, s.producer, "fabric", 10)
		s.Require().NoError(err)

		chain, err := s.svc.Chain(s.ctx, token.ID)
		s.Require().NoError(err)
		s.Require().Len(chain, 1)
		s.Equal(token.ID, chain[0].TokenID)
	})
}

// corruptReaders simulates a damaged ledger where a garment's origin points
// at itself. The creation-time invariant forbids this; the walk bound is
// what keeps Chain from spinning on such data.
type corruptReaders struct{}

func (corruptReaders) FindByID(_ context.Context, id domain.TokenID) (*product.Token, error) {
	return nil, sentinel.ErrNotFound
}

func (corruptReaders) Count(_ context.Context) (int, error) { return 1, nil }

type corruptGarments struct{}

func (corruptGarments) FindByID(_ context.Context, id domain.TokenID) (*garment.Token, error) {
	return &garment.Token{ID: id, Name: "loop", Quantity: 1, Origin: id, State: domain.StateCreated}, nil
}

func (corruptGarments) Count(_ context.Context) (int, error) { return 1, nil }

func TestChainBoundHaltsOnCorruptedOrigin(t *testing.T) {
	svc := provenance.NewService(corruptReaders{}, corruptGarments{})

	_, err := svc.Chain(context.Background(), domain.TokenID(1))
	if err == nil {
		t.Fatal("expected the walk bound to trip")
	}
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("unexpected error: %v", err)
	}
}
