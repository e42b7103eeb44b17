package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// ProgressionService defines the methods the progression handler requires
// from the service layer.
type ProgressionService interface {
	AddExperience(ctx context.Context, caller, cardID string, amount uint32) (domain.Card, error)
	LevelUpCard(ctx context.Context, owner, cardID string) (domain.Card, error)
}

// ProgressionHandler serves card experience and level-up endpoints.
type ProgressionHandler struct {
	progression ProgressionService
	logger      *slog.Logger
}

// NewProgressionHandler creates a ProgressionHandler with the given service
// and logger.
func NewProgressionHandler(progression ProgressionService, logger *slog.Logger) *ProgressionHandler {
	return &ProgressionHandler{progression: progression, logger: logger}
}

// addExperienceRequest is the JSON body for granting experience.
type addExperienceRequest struct {
	Amount uint32 `json:"amount"`
}

// AddExperience grants experience points to a card owned by the caller.
// POST /api/cards/{id}/experience
func (h *ProgressionHandler) AddExperience(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	id := pathParam(r, "id")
	var req addExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	card, err := h.progression.AddExperience(r.Context(), caller, id, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// LevelUp advances a card one level if it has banked enough experience.
// POST /api/cards/{id}/levelup
func (h *ProgressionHandler) LevelUp(w http.ResponseWriter, r *http.Request) {
	owner, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	id := pathParam(r, "id")
	card, err := h.progression.LevelUpCard(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
