package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// ChestService defines the methods the chest handler requires from the
// service layer.
type ChestService interface {
	OpenChest(ctx context.Context, owner string, kind domain.ChestKind) (domain.ChestGrant, domain.Card, error)
	History(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.ChestGrant, error)
}

// ChestHandler serves chest opening and history endpoints.
type ChestHandler struct {
	chests ChestService
	logger *slog.Logger
}

// NewChestHandler creates a ChestHandler with the given service and logger.
func NewChestHandler(chests ChestService, logger *slog.Logger) *ChestHandler {
	return &ChestHandler{chests: chests, logger: logger}
}

// openChestRequest is the JSON body for opening a chest.
type openChestRequest struct {
	Kind string `json:"kind"`
}

// openChestResponse reports the grant and the freshly minted card.
type openChestResponse struct {
	Grant domain.ChestGrant `json:"grant"`
	Card  domain.Card       `json:"card"`
}

// OpenChest spends account experience to open a chest and mint a random
// card for the caller.
// POST /api/chests/open
func (h *ChestHandler) OpenChest(w http.ResponseWriter, r *http.Request) {
	owner, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	var req openChestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	grant, card, err := h.chests.OpenChest(r.Context(), owner, domain.ChestKind(req.Kind))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, openChestResponse{Grant: grant, Card: card})
}

// chestHistoryResponse wraps the history output.
type chestHistoryResponse struct {
	Grants []domain.ChestGrant `json:"grants"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// History returns the caller's chest opening history, newest first.
// GET /api/users/{id}/chests?limit=50&offset=0
func (h *ChestHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := normalizeAddress(pathParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user address")
		return
	}

	opts := parseListOpts(r)
	grants, err := h.chests.History(r.Context(), id, opts)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if grants == nil {
		grants = []domain.ChestGrant{}
	}
	writeJSON(w, http.StatusOK, chestHistoryResponse{Grants: grants, Limit: opts.Limit, Offset: opts.Offset})
}
