package market

import (
	"errors"
)

// ErrInsufficientFunds is returned by balance stores when a debit would take
// an account below zero. The service maps it to a payment error.
var ErrInsufficientFunds = errors.New("insufficient funds")
