package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hilo/internal/garment"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// GarmentService is the slice of the garment registry the transport needs.
type GarmentService interface {
	Add(ctx context.Context, caller domain.AccountID, name string, quantity uint64, price decimal.Decimal, origin domain.TokenID) (*garment.Token, error)
	SetForSale(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*garment.Token, error)
	TokensForSaleBy(ctx context.Context, account domain.AccountID) ([]*garment.Token, error)
	ListForSale(ctx context.Context) ([]*garment.Token, error)
	Get(ctx context.Context, id domain.TokenID, account domain.AccountID) (*garment.Token, error)
	TokensOwnedOrCreatedBy(ctx context.Context, account domain.AccountID) ([]*garment.Token, error)
}

type addGarmentRequest struct {
	Name     string          `json:"name"`
	Quantity uint64          `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Origin   uint64          `json:"origin"`
}

type garmentResponse struct {
	ID        uint64          `json:"id"`
	Name      string          `json:"name"`
	Quantity  uint64          `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Origin    uint64          `json:"origin"`
	State     int             `json:"state"`
	StateName string          `json:"state_name"`
	Creator   string          `json:"creator"`
	Owner     string          `json:"owner"`
	CreatedAt time.Time       `json:"created_at"`
}

func toGarmentResponse(t *garment.Token) garmentResponse {
	return garmentResponse{
		ID:        uint64(t.ID),
		Name:      t.Name,
		Quantity:  t.Quantity,
		Price:     t.Price,
		Origin:    uint64(t.Origin),
		State:     int(t.State),
		StateName: t.State.String(),
		Creator:   t.Creator.String(),
		Owner:     t.Owner.String(),
		CreatedAt: t.CreatedAt,
	}
}

func (h *Handler) registerGarmentRoutes(protected chi.Router) {
	protected.Post("/garments", h.handleAddGarment)
	protected.Get("/garments", h.handleListGarments)
	protected.Get("/garments/listings", h.handleOwnListings)
	protected.Get("/garments/{id}", h.handleGetGarment)
	protected.Post("/garments/{id}/list", h.handleSetForSale)
}

func (h *Handler) handleAddGarment(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req addGarmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if !govalidator.StringLength(req.Name, "1", "128") {
		writeError(w, dErrors.New(dErrors.CodeValidation, "name must be between 1 and 128 characters"))
		return
	}

	token, err := h.garments.Add(r.Context(), caller, req.Name, req.Quantity, req.Price, domain.TokenID(req.Origin))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGarmentResponse(token))
}

func (h *Handler) handleListGarments(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeGarmentList(w, r.Context(), caller, h.garments.TokensOwnedOrCreatedBy)
}

func (h *Handler) handleOwnListings(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeGarmentList(w, r.Context(), caller, h.garments.TokensForSaleBy)
}

func (h *Handler) writeGarmentList(w http.ResponseWriter, ctx context.Context, account domain.AccountID, list func(context.Context, domain.AccountID) ([]*garment.Token, error)) {
	tokens, err := list(ctx, account)
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

func (h *Handler) handleGetGarment(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := tokenIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := h.garments.Get(r.Context(), id, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGarmentResponse(token))
}

func (h *Handler) handleSetForSale(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := tokenIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := h.garments.SetForSale(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGarmentResponse(token))
}
