package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pookielabs/cardmarket/internal/domain"
	"github.com/pookielabs/cardmarket/internal/service"
)

// CardService defines the methods the card handler requires from the
// service layer.
type CardService interface {
	GetCard(ctx context.Context, id string) (domain.Card, error)
	ListByOwner(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.Card, error)
	ListListed(ctx context.Context, opts domain.ListOpts) ([]domain.Card, error)
	MintCard(ctx context.Context, p service.MintParams) (domain.Card, error)
	TransferCard(ctx context.Context, from, to, cardID string) error
	UpdateCardStats(ctx context.Context, authority, cardID string, patch service.StatsPatch) (domain.Card, error)
}

// CardHandler serves card CRUD and transfer endpoints.
type CardHandler struct {
	cards  CardService
	logger *slog.Logger
}

// NewCardHandler creates a CardHandler with the given service and logger.
func NewCardHandler(cards CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{cards: cards, logger: logger}
}

// listCardsResponse wraps the list endpoint output with pagination echoes.
type listCardsResponse struct {
	Cards  []domain.Card `json:"cards"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListCards returns cards filtered by owner, or all listed cards when the
// listed flag is set.
// GET /api/cards?owner=0x...&listed=true&limit=50&offset=0
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := parseListOpts(r)

	var cards []domain.Card
	var err error
	switch {
	case q.Get("owner") != "":
		var owner string
		owner, err = normalizeAddress(q.Get("owner"))
		if err == nil {
			cards, err = h.cards.ListByOwner(r.Context(), owner, opts)
		}
	case q.Get("listed") == "true":
		cards, err = h.cards.ListListed(r.Context(), opts)
	default:
		writeError(w, http.StatusBadRequest, "owner or listed=true query parameter required")
		return
	}
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	if cards == nil {
		cards = []domain.Card{}
	}
	writeJSON(w, http.StatusOK, listCardsResponse{Cards: cards, Limit: opts.Limit, Offset: opts.Offset})
}

// GetCard returns a single card by its ID.
// GET /api/cards/{id}
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing card id")
		return
	}

	card, err := h.cards.GetCard(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// mintCardRequest is the JSON body for minting a card.
type mintCardRequest struct {
	Name           string  `json:"name"`
	Rarity         string  `json:"rarity"`
	Element        string  `json:"element"`
	SpecialAbility *string `json:"special_ability,omitempty"`
	CollectionID   string  `json:"collection_id,omitempty"`
}

// MintCard creates a new card owned by the caller.
// POST /api/cards
func (h *CardHandler) MintCard(w http.ResponseWriter, r *http.Request) {
	owner, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	var req mintCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	card, err := h.cards.MintCard(r.Context(), service.MintParams{
		Owner:          owner,
		Name:           req.Name,
		Rarity:         domain.Rarity(req.Rarity),
		Element:        domain.Element(req.Element),
		SpecialAbility: req.SpecialAbility,
		CollectionID:   req.CollectionID,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// transferRequest is the JSON body for a direct card transfer.
type transferRequest struct {
	To string `json:"to"`
}

// TransferCard moves a card from the caller to another wallet.
// POST /api/cards/{id}/transfer
func (h *CardHandler) TransferCard(w http.ResponseWriter, r *http.Request) {
	from, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	id := pathParam(r, "id")
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	to, err := normalizeAddress(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipient address")
		return
	}

	if err := h.cards.TransferCard(r.Context(), from, to, id); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "transferred",
		"card_id": id,
		"to":      to,
	})
}

// statsPatchRequest is the JSON body for the privileged stat override.
// Absent fields are left untouched.
type statsPatchRequest struct {
	Attack         *uint16 `json:"attack,omitempty"`
	Defense        *uint16 `json:"defense,omitempty"`
	Health         *uint16 `json:"health,omitempty"`
	SpecialAbility *string `json:"special_ability,omitempty"`
}

// UpdateCardStats overwrites a card's combat stats. Only the marketplace
// authority may call it; the HMAC admin middleware guards the route and
// the service re-checks the authority identity.
// PUT /api/cards/{id}/stats
func (h *CardHandler) UpdateCardStats(w http.ResponseWriter, r *http.Request) {
	authority, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	id := pathParam(r, "id")
	var req statsPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	card, err := h.cards.UpdateCardStats(r.Context(), authority, id, service.StatsPatch{
		Attack:         req.Attack,
		Defense:        req.Defense,
		Health:         req.Health,
		SpecialAbility: req.SpecialAbility,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
