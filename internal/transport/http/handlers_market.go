package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hilo/internal/garment"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// MarketService is the slice of the marketplace the transport needs.
type MarketService interface {
	Buy(ctx context.Context, buyer domain.AccountID, id domain.TokenID, payment decimal.Decimal) (*garment.Token, error)
	Deposit(ctx context.Context, account domain.AccountID, amount decimal.Decimal) error
	BalanceOf(ctx context.Context, account domain.AccountID) (decimal.Decimal, error)
}

type buyRequest struct {
	TokenID uint64          `json:"token_id"`
	Payment decimal.Decimal `json:"payment"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) registerMarketRoutes(protected chi.Router) {
	protected.Get("/market/listings", h.handleMarketListings)
	protected.Post("/market/buy", h.handleBuy)
	protected.Post("/market/deposit", h.handleDeposit)
	protected.Get("/market/balance", h.handleBalance)
}

// handleMarketListings is the storefront: every garment currently for sale,
// any seller.
func (h *Handler) handleMarketListings(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.garments.ListForSale(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]garmentResponse, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, toGarmentResponse(token))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if req.TokenID == 0 {
		writeError(w, dErrors.New(dErrors.CodeValidation, "token_id is required"))
		return
	}

	token, err := h.market.Buy(r.Context(), caller, domain.TokenID(req.TokenID), req.Payment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGarmentResponse(token))
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if err := h.market.Deposit(r.Context(), caller, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	h.handleBalance(w, r)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.market.BalanceOf(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}
