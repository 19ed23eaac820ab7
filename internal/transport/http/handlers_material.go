package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hilo/internal/material"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// MaterialService is the slice of the material registry the transport needs.
type MaterialService interface {
	Produce(ctx context.Context, caller domain.AccountID, kind material.Kind, quantity uint64, price decimal.Decimal) (*material.Lot, error)
	LotsByProducer(ctx context.Context, producer domain.AccountID) ([]*material.Lot, error)
}

type produceRequest struct {
	Kind     string          `json:"kind"`
	Quantity uint64          `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type lotResponse struct {
	ID        uint64          `json:"id"`
	Kind      string          `json:"kind"`
	Quantity  uint64          `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Producer  string          `json:"producer"`
	CreatedAt time.Time       `json:"created_at"`
}

func toLotResponse(lot *material.Lot) lotResponse {
	return lotResponse{
		ID:        uint64(lot.ID),
		Kind:      string(lot.Kind),
		Quantity:  lot.Quantity,
		Price:     lot.Price,
		Producer:  lot.Producer.String(),
		CreatedAt: lot.CreatedAt,
	}
}

func (h *Handler) registerMaterialRoutes(protected chi.Router) {
	protected.Post("/materials", h.handleProduce)
	protected.Get("/materials", h.handleLots)
}

func (h *Handler) handleProduce(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req produceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	kind, err := material.ParseKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}

	lot, err := h.materials.Produce(r.Context(), caller, kind, req.Quantity, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLotResponse(lot))
}

// handleLots lists the caller's own lots.
func (h *Handler) handleLots(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lots, err := h.materials.LotsByProducer(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]lotResponse, 0, len(lots))
	for _, lot := range lots {
		out = append(out, toLotResponse(lot))
	}
	writeJSON(w, http.StatusOK, out)
}
