package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// MarketService defines the methods the market handler requires from the
// service layer.
type MarketService interface {
	InitializeMarketplace(ctx context.Context, authority string, feeBps uint16) (domain.Marketplace, error)
	GetMarketplace(ctx context.Context) (domain.Marketplace, error)
	ListCard(ctx context.Context, seller, cardID string, price uint64) (domain.Listing, error)
	BuyCard(ctx context.Context, buyer, cardID string) (domain.Sale, error)
	CancelListing(ctx context.Context, seller, cardID string) error
	ListListings(ctx context.Context, opts domain.ListOpts) ([]domain.Listing, error)
	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)
}

// MarketHandler serves marketplace, listing, and sale endpoints.
type MarketHandler struct {
	market MarketService
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and
// logger.
func NewMarketHandler(market MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{market: market, logger: logger}
}

// initMarketplaceRequest is the JSON body for marketplace initialization.
type initMarketplaceRequest struct {
	FeeBps uint16 `json:"fee_bps"`
}

// InitializeMarketplace creates the singleton marketplace record. The
// caller becomes the marketplace authority. Admin-only.
// POST /api/marketplace
func (h *MarketHandler) InitializeMarketplace(w http.ResponseWriter, r *http.Request) {
	authority, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	var req initMarketplaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	mp, err := h.market.InitializeMarketplace(r.Context(), authority, req.FeeBps)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, mp)
}

// GetMarketplace returns the marketplace configuration and totals.
// GET /api/marketplace
func (h *MarketHandler) GetMarketplace(w http.ResponseWriter, r *http.Request) {
	mp, err := h.market.GetMarketplace(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mp)
}

// listingsResponse wraps the listings endpoint output.
type listingsResponse struct {
	Listings []domain.Listing `json:"listings"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListListings returns active fixed-price listings, newest first.
// GET /api/listings?limit=50&offset=0
func (h *MarketHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	listings, err := h.market.ListListings(r.Context(), opts)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	writeJSON(w, http.StatusOK, listingsResponse{Listings: listings, Limit: opts.Limit, Offset: opts.Offset})
}

// createListingRequest is the JSON body for listing a card.
type createListingRequest struct {
	CardID string `json:"card_id"`
	Price  uint64 `json:"price"`
}

// CreateListing places a card the caller owns up for sale at a fixed
// price. The card token moves into escrow.
// POST /api/listings
func (h *MarketHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	seller, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.CardID == "" {
		writeError(w, http.StatusBadRequest, "card_id is required")
		return
	}

	listing, err := h.market.ListCard(r.Context(), seller, req.CardID, req.Price)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

// BuyListing executes a purchase of a listed card at its asking price.
// POST /api/listings/{card_id}/buy
func (h *MarketHandler) BuyListing(w http.ResponseWriter, r *http.Request) {
	buyer, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	cardID := pathParam(r, "card_id")
	sale, err := h.market.BuyCard(r.Context(), buyer, cardID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// CancelListing removes the caller's listing and returns the card from
// escrow.
// DELETE /api/listings/{card_id}
func (h *MarketHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	seller, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	cardID := pathParam(r, "card_id")
	if err := h.market.CancelListing(r.Context(), seller, cardID); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "cancelled",
		"card_id": cardID,
	})
}

// salesResponse wraps the sales endpoint output.
type salesResponse struct {
	Sales []domain.Sale `json:"sales"`
}

// ListSales returns recent completed sales, newest first.
// GET /api/sales?limit=50
func (h *MarketHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	sales, err := h.market.ListSales(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if sales == nil {
		sales = []domain.Sale{}
	}
	writeJSON(w, http.StatusOK, salesResponse{Sales: sales})
}
