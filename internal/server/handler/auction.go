package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// AuctionService defines the methods the auction handler requires from the
// service layer.
type AuctionService interface {
	CreateAuction(ctx context.Context, seller, cardID string, startingPrice uint64, duration time.Duration) (domain.Auction, error)
	PlaceBid(ctx context.Context, bidder, cardID string, amount uint64) (domain.Auction, error)
	EndAuction(ctx context.Context, caller, cardID string) (*domain.Sale, error)
	ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Auction, error)
}

// AuctionHandler serves timed-auction endpoints.
type AuctionHandler struct {
	auctions AuctionService
	logger   *slog.Logger
}

// NewAuctionHandler creates an AuctionHandler with the given service and
// logger.
func NewAuctionHandler(auctions AuctionService, logger *slog.Logger) *AuctionHandler {
	return &AuctionHandler{auctions: auctions, logger: logger}
}

// auctionsResponse wraps the list endpoint output.
type auctionsResponse struct {
	Auctions []domain.Auction `json:"auctions"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListAuctions returns active auctions, soonest-ending first.
// GET /api/auctions?limit=50&offset=0
func (h *AuctionHandler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	auctions, err := h.auctions.ListActive(r.Context(), opts)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if auctions == nil {
		auctions = []domain.Auction{}
	}
	writeJSON(w, http.StatusOK, auctionsResponse{Auctions: auctions, Limit: opts.Limit, Offset: opts.Offset})
}

// createAuctionRequest is the JSON body for starting an auction.
type createAuctionRequest struct {
	CardID          string `json:"card_id"`
	StartingPrice   uint64 `json:"starting_price"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// CreateAuction starts a timed ascending auction for a card the caller
// owns. The card token moves into escrow until the auction resolves.
// POST /api/auctions
func (h *AuctionHandler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	seller, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.CardID == "" {
		writeError(w, http.StatusBadRequest, "card_id is required")
		return
	}

	auction, err := h.auctions.CreateAuction(r.Context(), seller, req.CardID,
		req.StartingPrice, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, auction)
}

// placeBidRequest is the JSON body for a bid.
type placeBidRequest struct {
	Amount uint64 `json:"amount"`
}

// PlaceBid records a bid on an active auction. The bid must beat the
// current bid by at least ten percent, or meet the starting price when no
// bid exists yet.
// POST /api/auctions/{card_id}/bids
func (h *AuctionHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	bidder, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	cardID := pathParam(r, "card_id")
	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	auction, err := h.auctions.PlaceBid(r.Context(), bidder, cardID, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, auction)
}

// endAuctionResponse reports how an auction resolved. Sale is null when
// the auction closed with no bids and the card returned to the seller.
type endAuctionResponse struct {
	Status string       `json:"status"`
	Sale   *domain.Sale `json:"sale,omitempty"`
}

// EndAuction settles an auction whose deadline has passed. With a winning
// bid the winner must call it to claim the card; with no bids anyone may
// close it and the card returns to the seller.
// POST /api/auctions/{card_id}/end
func (h *AuctionHandler) EndAuction(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	cardID := pathParam(r, "card_id")
	sale, err := h.auctions.EndAuction(r.Context(), caller, cardID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	status := "settled"
	if sale == nil {
		status = "closed"
	}
	writeJSON(w, http.StatusOK, endAuctionResponse{Status: status, Sale: sale})
}
