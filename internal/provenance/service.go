package provenance

import (
	"context"
	"errors"

	"hilo/internal/garment"
	"hilo/internal/product"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
	"hilo/pkg/platform/sentinel"
)

// Record is the read projection of one token's provenance entry. It is
// derived from the owning token's committed fields, never stored.
type Record struct {
	TokenID   domain.TokenID   `json:"token_id"`
	CreatedBy domain.AccountID `json:"created_by"`
	Origin    domain.TokenID   `json:"origin"`
	Quantity  uint64           `json:"quantity"`
	Name      string           `json:"name"`
	State     domain.State     `json:"state"`
}

// ProductReader is the slice of the product store the walk needs.
type ProductReader interface {
	FindByID(ctx context.Context, id domain.TokenID) (*product.Token, error)
	Count(ctx context.Context) (int, error)
}

// GarmentReader is the slice of the garment store the walk needs.
type GarmentReader interface {
	FindByID(ctx context.Context, id domain.TokenID) (*garment.Token, error)
	Count(ctx context.Context) (int, error)
}

// Service reconstructs provenance chains across both token registries.
// Token ids are unique across the ledger, so a lookup matches at most one
// registry; the product registry is consulted first.
type Service struct {
	products ProductReader
	garments GarmentReader
}

func NewService(products ProductReader, garments GarmentReader) *Service {
	return &Service{products: products, garments: garments}
}

// Trace returns the single provenance record for the token.
func (s *Service) Trace(ctx context.Context, id domain.TokenID) (*Record, error) {
	return s.resolve(ctx, id)
}

// Chain walks origin links from the token back to a root (origin 0) and
// returns the records root-first, queried token last. Origins are set once
// at creation to a strictly earlier token, so the walk is acyclic; the
// depth bound equals the combined token count and only trips on a
// corrupted reference.
func (s *Service) Chain(ctx context.Context, id domain.TokenID) ([]*Record, error) {
	productCount, err := s.products.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to size the walk bound")
	}
	garmentCount, err := s.garments.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to size the walk bound")
	}
	bound := productCount + garmentCount

	var chain []*Record
	current := id
	for depth := 0; current != 0; depth++ {
		if depth >= bound {
			return nil, dErrors.New(dErrors.CodeInternal, "origin walk exceeded the ledger's token count")
		}
		record, err := s.resolve(ctx, current)
		if err != nil {
			return nil, err
		}
		chain = append(chain, record)
		current = record.Origin
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (s *Service) resolve(ctx context.Context, id domain.TokenID) (*Record, error) {
	productToken, err := s.products.FindByID(ctx, id)
	if err == nil {
		return &Record{
			TokenID:   productToken.ID,
			CreatedBy: productToken.Creator,
			Quantity:  productToken.Quantity,
			Name:      productToken.Name,
			State:     productToken.State,
		}, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	garmentToken, err := s.garments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown token id")
		}
		return nil, err
	}
	return &Record{
		TokenID:   garmentToken.ID,
		CreatedBy: garmentToken.Creator,
		Origin:    garmentToken.Origin,
		Quantity:  garmentToken.Quantity,
		Name:      garmentToken.Name,
		State:     garmentToken.State,
	}, nil
}
