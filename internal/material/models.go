package material

import (
	"time"

	"github.com/shopspring/decimal"

	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// Kind is the closed set of raw material kinds.
type Kind string

const (
	KindCotton Kind = "cotton"
	KindWool   Kind = "wool"
	KindSilk   Kind = "silk"
	KindLinen  Kind = "linen"
)

var validKinds = map[Kind]bool{
	KindCotton: true,
	KindWool:   true,
	KindSilk:   true,
	KindLinen:  true,
}

// ParseKind constructs a Kind from external input.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "material kind cannot be empty")
	}
	k := Kind(s)
	if !validKinds[k] {
		return "", dErrors.New(dErrors.CodeValidation, "unknown material kind: "+s)
	}
	return k, nil
}

func (k Kind) String() string { return string(k) }

// Lot is an immutable raw material lot. Once minted it is read-only; there is
// no lifecycle, no transfer, no deletion.
type Lot struct {
	ID        domain.TokenID
	Kind      Kind
	Quantity  uint64
	Price     decimal.Decimal
	Producer  domain.AccountID
	CreatedAt time.Time
}
