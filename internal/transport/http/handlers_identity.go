package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"hilo/internal/identity"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// IdentityService is the slice of the identity registry the transport needs.
type IdentityService interface {
	Register(ctx context.Context, account domain.AccountID, name string, role domain.Role, credential string) (*identity.User, error)
	Login(ctx context.Context, account domain.AccountID, credential string, userAgent string) (identity.LoginResult, error)
	Logout(ctx context.Context, account domain.AccountID) error
	ResolveAccount(ctx context.Context, name string) (domain.AccountID, error)
	RoleOf(ctx context.Context, account domain.AccountID) (domain.Role, error)
	ListUsers(ctx context.Context) ([]*identity.User, error)
}

type registerRequest struct {
	Account    string `json:"account"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Credential string `json:"credential"`
}

type loginRequest struct {
	Account    string `json:"account"`
	Credential string `json:"credential"`
}

type userResponse struct {
	Account       string    `json:"account"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	SessionActive bool      `json:"session_active"`
	RegisteredAt  time.Time `json:"registered_at"`
}

func toUserResponse(u *identity.User) userResponse {
	return userResponse{
		Account:       u.Account.String(),
		Name:          u.Name,
		Role:          string(u.Role),
		SessionActive: u.SessionActive,
		RegisteredAt:  u.RegisteredAt,
	}
}

func (h *Handler) registerIdentityRoutes(protected chi.Router) {
	protected.Post("/identity/logout", h.handleLogout)
	protected.Get("/identity/accounts/{name}", h.handleResolveAccount)
	protected.Get("/identity/users", h.handleListUsers)
}

// handleRegister creates an account. The account id may be supplied by the
// caller's wallet; when absent a fresh one is minted and returned.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if !govalidator.StringLength(req.Name, "1", "64") {
		writeError(w, dErrors.New(dErrors.CodeValidation, "name must be between 1 and 64 characters"))
		return
	}
	if !govalidator.StringLength(req.Credential, "8", "128") {
		writeError(w, dErrors.New(dErrors.CodeValidation, "credential must be between 8 and 128 characters"))
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	account := domain.NewAccountID()
	if req.Account != "" {
		account, err = domain.ParseAccountID(req.Account)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	user, err := h.identity.Register(r.Context(), account, req.Name, role, req.Credential)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	account, err := domain.ParseAccountID(req.Account)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Credential == "" {
		writeError(w, dErrors.New(dErrors.CodeValidation, "credential is required"))
		return
	}

	result, err := h.identity.Login(r.Context(), account, req.Credential, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"role":  string(result.Role),
		"token": result.Token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	account, err := callerAccount(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.identity.Logout(r.Context(), account); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResolveAccount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !govalidator.StringLength(name, "1", "64") {
		writeError(w, dErrors.New(dErrors.CodeValidation, "name must be between 1 and 64 characters"))
		return
	}
	account, err := h.identity.ResolveAccount(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	role, err := h.identity.RoleOf(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"account": account.String(),
		"role":    string(role),
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identity.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, out)
}
