package ledger

import (
	"sync/atomic"

	"hilo/pkg/domain"
)

// TokenSequence hands out ledger-wide token ids. Both token registries draw
// from the same sequence, so an id names exactly one token and is never
// reused. The postgres stores get the same property from a shared SQL
// sequence.
type TokenSequence struct {
	last atomic.Uint64
}

func NewTokenSequence() *TokenSequence {
	return &TokenSequence{}
}

func (s *TokenSequence) Next() domain.TokenID {
	return domain.TokenID(s.last.Add(1))
}
