package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"hilo/internal/product"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// ProductService is the slice of the product registry the transport needs.
type ProductService interface {
	Add(ctx context.Context, caller domain.AccountID, name string, quantity uint64) (*product.Token, error)
	TransferToTailor(ctx context.Context, caller, target domain.AccountID, id domain.TokenID) (*product.Token, error)
	Accept(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*product.Token, error)
	Reject(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*product.Token, error)
	Delete(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*product.Token, error)
	Get(ctx context.Context, id domain.TokenID, account domain.AccountID) (*product.Token, error)
	TokensOwnedOrCreatedBy(ctx context.Context, account domain.AccountID) ([]*product.Token, error)
}

type addProductRequest struct {
	Name     string `json:"name"`
	Quantity uint64 `json:"quantity"`
}

type transferRequest struct {
	Target string `json:"target"`
}

type productResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Quantity  uint64    `json:"quantity"`
	State     int       `json:"state"`
	StateName string    `json:"state_name"`
	Creator   string    `json:"creator"`
	Owner     string    `json:"owner"`
	Consumed  bool      `json:"consumed"`
	CreatedAt time.Time `json:"created_at"`
}

func toProductResponse(t *product.Token) productResponse {
	return productResponse{
		ID:        uint64(t.ID),
		Name:      t.Name,
		Quantity:  t.Quantity,
		State:     int(t.State),
		StateName: t.State.String(),
		Creator:   t.Creator.String(),
		Owner:     t.Owner.String(),
		Consumed:  t.Consumed,
		CreatedAt: t.CreatedAt,
	}
}

func (h *Handler) registerProductRoutes(protected chi.Router) {
	protected.Post("/products", h.handleAddProduct)
	protected.Get("/products", h.handleListProducts)
	protected.Get("/products/{id}", h.handleGetProduct)
	protected.Post("/products/{id}/transfer", h.handleTransferProduct)
	protected.Post("/products/{id}/accept", h.handleAcceptProduct)
	protected.Post("/products/{id}/reject", h.handleRejectProduct)
	protected.Delete("/products/{id}", h.handleDeleteProduct)
}

func (h *Handler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if !govalidator.StringLength(req.Name, "1", "128") {
		writeError(w, dErrors.New(dErrors.CodeValidation, "name must be between 1 and 128 characters"))
		return
	}

	token, err := h.products.Add(r.Context(), caller, req.Name, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(token))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tokens, err := h.products.TokensOwnedOrCreatedBy(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]productResponse, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, toProductResponse(token))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
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
	token, err := h.products.Get(r.Context(), id, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(token))
}

func (h *Handler) handleTransferProduct(w http.ResponseWriter, r *http.Request) {
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
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	target, err := domain.ParseAccountID(req.Target)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.products.TransferToTailor(r.Context(), caller, target, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(token))
}

func (h *Handler) handleAcceptProduct(w http.ResponseWriter, r *http.Request) {
	h.productTransition(w, r, h.products.Accept)
}

func (h *Handler) handleRejectProduct(w http.ResponseWriter, r *http.Request) {
	h.productTransition(w, r, h.products.Reject)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.productTransition(w, r, h.products.Delete)
}

func (h *Handler) productTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.AccountID, domain.TokenID) (*product.Token, error)) {
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
	token, err := op(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(token))
}
