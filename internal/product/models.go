package product

import (
	"time"

	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// Token is an intermediate-good token minted by a Producer. State advances
// monotonically through the transition graph below; Rejected and Deleted are
// terminal. A consumed token (used as a garment origin) admits no further
// transitions.
type Token struct {
	ID        domain.TokenID
	Name      string
	Quantity  uint64
	State     domain.State
	Creator   domain.AccountID
	Owner     domain.AccountID
	Consumed  bool
	CreatedAt time.Time
}

// transitions is the product registry's lifecycle graph. No skips, no
// reversals.
var transitions = map[domain.State][]domain.State{
	domain.StateCreated: {domain.StatePending, domain.StateDeleted},
	domain.StatePending: {domain.StateAccepted, domain.StateRejected},
}

// CanTransition reports whether the token may move to the target state.
func (t *Token) CanTransition(to domain.State) error {
	if t.Consumed {
		return dErrors.New(dErrors.CodeInvalidState, "token has been consumed")
	}
	for _, allowed := range transitions[t.State] {
		if allowed == to {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeInvalidState,
		"cannot move token from "+t.State.String()+" to "+to.String())
}

// NewToken validates and constructs a token with state Created.
func NewToken(name string, quantity uint64, creator domain.AccountID, now time.Time) (*Token, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "product name is required")
	}
	if quantity == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "quantity must be greater than zero")
	}
	return &Token{
		Name:      name,
		Quantity:  quantity,
		State:     domain.StateCreated,
		Creator:   creator,
		Owner:     creator,
		CreatedAt: now,
	}, nil
}
