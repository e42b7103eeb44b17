package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// StatsService defines the methods the user handler requires from the
// service layer.
type StatsService interface {
	InitializeUserStats(ctx context.Context, identity string) (domain.UserStats, error)
	GetUserStats(ctx context.Context, identity string) (domain.UserStats, error)
	RecordBattleResult(ctx context.Context, authority, winner, loser string) error
	CreateCollection(ctx context.Context, authority, name, description string, maxSupply *uint64) (domain.Collection, error)
	ListCollections(ctx context.Context, opts domain.ListOpts) ([]domain.Collection, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.UserStats, error)
}

// UserHandler serves account stats, battle, leaderboard, and collection
// endpoints.
type UserHandler struct {
	stats  StatsService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler with the given service and logger.
func NewUserHandler(stats StatsService, logger *slog.Logger) *UserHandler {
	return &UserHandler{stats: stats, logger: logger}
}

// InitializeStats creates the caller's account progression record.
// POST /api/users/stats
func (h *UserHandler) InitializeStats(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	stats, err := h.stats.InitializeUserStats(r.Context(), caller)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, stats)
}

// GetStats returns the account progression record for a wallet.
// GET /api/users/{id}/stats
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := normalizeAddress(pathParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user address")
		return
	}

	stats, err := h.stats.GetUserStats(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// battleRequest is the JSON body for recording a battle outcome.
type battleRequest struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

// RecordBattle records a battle result against both participants. Only the
// marketplace authority may report outcomes; the admin middleware guards
// the route and the service re-checks the identity.
// POST /api/battles
func (h *UserHandler) RecordBattle(w http.ResponseWriter, r *http.Request) {
	authority, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	var req battleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	winner, err := normalizeAddress(req.Winner)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid winner address")
		return
	}
	loser, err := normalizeAddress(req.Loser)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loser address")
		return
	}

	if err := h.stats.RecordBattleResult(r.Context(), authority, winner, loser); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "recorded",
		"winner": winner,
		"loser":  loser,
	})
}

// leaderboardResponse wraps the leaderboard output.
type leaderboardResponse struct {
	Users []domain.UserStats `json:"users"`
}

// Leaderboard returns the top accounts by experience.
// GET /api/leaderboard?limit=50
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	users, err := h.stats.Leaderboard(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if users == nil {
		users = []domain.UserStats{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Users: users})
}

// createCollectionRequest is the JSON body for creating a collection.
type createCollectionRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MaxSupply   *uint64 `json:"max_supply,omitempty"`
}

// CreateCollection creates a named card collection. Admin-only.
// POST /api/collections
func (h *UserHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	authority, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	col, err := h.stats.CreateCollection(r.Context(), authority, req.Name, req.Description, req.MaxSupply)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, col)
}

// collectionsResponse wraps the collections list output.
type collectionsResponse struct {
	Collections []domain.Collection `json:"collections"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// ListCollections returns all collections.
// GET /api/collections?limit=50&offset=0
func (h *UserHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	cols, err := h.stats.ListCollections(r.Context(), opts)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if cols == nil {
		cols = []domain.Collection{}
	}
	writeJSON(w, http.StatusOK, collectionsResponse{Collections: cols, Limit: opts.Limit, Offset: opts.Offset})
}
