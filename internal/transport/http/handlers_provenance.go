package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hilo/internal/provenance"
	"hilo/pkg/domain"
)

// ProvenanceService is the slice of the provenance walker the transport
// needs.
type ProvenanceService interface {
	Trace(ctx context.Context, id domain.TokenID) (*provenance.Record, error)
	Chain(ctx context.Context, id domain.TokenID) ([]*provenance.Record, error)
}

type provenanceRecord struct {
	TokenID   uint64 `json:"token_id"`
	CreatedBy string `json:"created_by"`
	Origin    uint64 `json:"origin"`
	Quantity  uint64 `json:"quantity"`
	Name      string `json:"name"`
	State     int    `json:"state"`
	StateName string `json:"state_name"`
}

func toProvenanceRecord(r *provenance.Record) provenanceRecord {
	return provenanceRecord{
		TokenID:   uint64(r.TokenID),
		CreatedBy: r.CreatedBy.String(),
		Origin:    uint64(r.Origin),
		Quantity:  r.Quantity,
		Name:      r.Name,
		State:     int(r.State),
		StateName: r.State.String(),
	}
}

func (h *Handler) registerProvenanceRoutes(protected chi.Router) {
	protected.Get("/provenance/{id}", h.handleTrace)
	protected.Get("/provenance/{id}/chain", h.handleChain)
}

func (h *Handler) handleTrace(w http.ResponseWriter, r *http.Request) {
	id, err := tokenIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	record, err := h.provenance.Trace(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProvenanceRecord(record))
}

func (h *Handler) handleChain(w http.ResponseWriter, r *http.Request) {
	id, err := tokenIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.provenance.Chain(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]provenanceRecord, 0, len(records))
	for _, record := range records {
		out = append(out, toProvenanceRecord(record))
	}
	writeJSON(w, http.StatusOK, out)
}
