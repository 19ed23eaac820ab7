package audit

import (
	"time"

	"hilo/pkg/domain"
)

// Event is emitted from registry services after a committed mutation. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time       `json:"timestamp"`
	Account   string          `json:"account"`
	Action    string          `json:"action"`
	Registry  string          `json:"registry,omitempty"`
	TokenID   domain.TokenID  `json:"token_id,omitempty"`
	Detail    string          `json:"detail,omitempty"`
}

// Actions recorded by the registries.
const (
	ActionUserRegistered  = "user.registered"
	ActionUserLoggedIn    = "user.logged_in"
	ActionUserLoggedOut   = "user.logged_out"
	ActionLotProduced     = "material.lot_produced"
	ActionTokenMinted     = "token.minted"
	ActionTokenTransfer   = "token.transferred"
	ActionTokenAccepted   = "token.accepted"
	ActionTokenRejected   = "token.rejected"
	ActionTokenDeleted    = "token.deleted"
	ActionTokenConsumed   = "token.consumed"
	ActionTokenListed     = "token.listed_for_sale"
	ActionSettlement      = "market.settlement"
	ActionBalanceDeposit  = "market.deposit"
)
