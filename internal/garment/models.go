package garment

import (
	"time"

	"github.com/shopspring/decimal"

	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// Token is a finished-garment token minted by a Tailor from an accepted
// origin token. Origin is set once at creation and never changes. Bought is
// terminal.
type Token struct {
	ID        domain.TokenID
	Name      string
	Quantity  uint64
	Price     decimal.Decimal
	Origin    domain.TokenID
	State     domain.State
	Creator   domain.AccountID
	Owner     domain.AccountID
	CreatedAt time.Time
}

var transitions = map[domain.State][]domain.State{
	domain.StateCreated: {domain.StateForSale},
	domain.StateForSale: {domain.StateBought},
}

// CanTransition reports whether the token may move to the target state.
func (t *Token) CanTransition(to domain.State) error {
	for _, allowed := range transitions[t.State] {
		if allowed == to {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeInvalidState,
		"cannot move token from "+t.State.String()+" to "+to.String())
}

// NewToken validates and constructs a token with state Created. Price may be
// zero; giving a garment away is allowed.
func NewToken(name string, quantity uint64, price decimal.Decimal, origin domain.TokenID, creator domain.AccountID, now time.Time) (*Token, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "garment name is required")
	}
	if quantity == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "quantity must be greater than zero")
	}
	if price.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "price must not be negative")
	}
	if origin == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "origin token id is required")
	}
	return &Token{
		Name:      name,
		Quantity:  quantity,
		Price:     price,
		Origin:    origin,
		State:     domain.StateCreated,
		Creator:   creator,
		Owner:     creator,
		CreatedAt: now,
	}, nil
}
