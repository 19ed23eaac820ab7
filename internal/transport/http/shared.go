package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hilo/internal/platform/middleware"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:   http.StatusBadRequest,
	dErrors.CodeNotFound:     http.StatusNotFound,
	dErrors.CodeUnauthorized: http.StatusForbidden,
	dErrors.CodeInvalidState: http.StatusConflict,
	dErrors.CodePayment:      http.StatusPaymentRequired,
	dErrors.CodeInternal:     http.StatusInternalServerError,
}

// writeError translates a domain error into the JSON error envelope. Every
// handler funnels failures through here so the mapping lives in one place.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
		code = dErrors.CodeInternal
	}
	message := "internal error"
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) && code != dErrors.CodeInternal {
		message = domainErr.Message
	}
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// callerAccount reads the authenticated account set by the session
// middleware.
func callerAccount(r *http.Request) (domain.AccountID, error) {
	raw := middleware.GetAccountID(r.Context())
	if raw == "" {
		return domain.AccountID{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return domain.ParseAccountID(raw)
}

// tokenIDParam parses the {id} path parameter.
func tokenIDParam(r *http.Request) (domain.TokenID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "token id must be a positive integer")
	}
	return domain.TokenID(id), nil
}
