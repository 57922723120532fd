package handlers

import (
	"net/http"
	"strconv"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/analysis"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// OpportunityHandler serves the opportunity API endpoints. Fresh
// signals live on the segment detail endpoint; this one reads the
// persisted history.
type OpportunityHandler struct {
	repo   *analysis.OpportunityRepository
	logger *logger.Logger
}

// NewOpportunityHandler creates a new opportunity handler.
func NewOpportunityHandler(repo *analysis.OpportunityRepository, log *logger.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		repo:   repo,
		logger: log,
	}
}

// List returns persisted opportunities, newest analysis first,
// optionally filtered to one segment
// GET /api/opportunities?segment=3
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var segmentID *int64
	if raw := r.URL.Query().Get("segment"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'segment' parameter")
			return
		}
		segmentID = &id
	}

	opportunities, err := h.repo.List(ctx, segmentID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list opportunities")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve opportunities")
		return
	}
	if opportunities == nil {
		opportunities = []contracts.Opportunity{}
	}

	respondJSON(w, http.StatusOK, opportunities)
}
