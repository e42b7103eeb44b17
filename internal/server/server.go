// Package server assembles the HTTP + WebSocket API for the card
// marketplace: route registration, the middleware chain, and graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pookielabs/cardmarket/internal/crypto"
	"github.com/pookielabs/cardmarket/internal/domain"
	"github.com/pookielabs/cardmarket/internal/server/handler"
	"github.com/pookielabs/cardmarket/internal/server/middleware"
	"github.com/pookielabs/cardmarket/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// AdminAuth signs privileged routes. If nil, admin routes reject
	// every request.
	AdminAuth *crypto.HMACAuth

	// RateLimit caps requests per client IP per RateWindow. Zero
	// disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health      *handler.HealthHandler
	Cards       *handler.CardHandler
	Progression *handler.ProgressionHandler
	Market      *handler.MarketHandler
	Auctions    *handler.AuctionHandler
	Users       *handler.UserHandler
	Chests      *handler.ChestHandler
}

// Server is the headless HTTP + WebSocket API server for the marketplace.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the
// ServeMux. It wires up the middleware chain and attaches the WebSocket
// hub. limiter may be nil when rate limiting is disabled.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	admin := middleware.Admin(cfg.AdminAuth)

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Card endpoints.
	mux.HandleFunc("GET /api/cards", handlers.Cards.ListCards)
	mux.HandleFunc("GET /api/cards/{id}", handlers.Cards.GetCard)
	mux.HandleFunc("POST /api/cards", handlers.Cards.MintCard)
	mux.HandleFunc("POST /api/cards/{id}/transfer", handlers.Cards.TransferCard)
	mux.Handle("PUT /api/cards/{id}/stats", admin(http.HandlerFunc(handlers.Cards.UpdateCardStats)))

	// Progression endpoints.
	mux.HandleFunc("POST /api/cards/{id}/experience", handlers.Progression.AddExperience)
	mux.HandleFunc("POST /api/cards/{id}/levelup", handlers.Progression.LevelUp)

	// Marketplace and listing endpoints.
	mux.Handle("POST /api/marketplace", admin(http.HandlerFunc(handlers.Market.InitializeMarketplace)))
	mux.HandleFunc("GET /api/marketplace", handlers.Market.GetMarketplace)
	mux.HandleFunc("GET /api/listings", handlers.Market.ListListings)
	mux.HandleFunc("POST /api/listings", handlers.Market.CreateListing)
	mux.HandleFunc("POST /api/listings/{card_id}/buy", handlers.Market.BuyListing)
	mux.HandleFunc("DELETE /api/listings/{card_id}", handlers.Market.CancelListing)
	mux.HandleFunc("GET /api/sales", handlers.Market.ListSales)

	// Auction endpoints.
	mux.HandleFunc("GET /api/auctions", handlers.Auctions.ListAuctions)
	mux.HandleFunc("POST /api/auctions", handlers.Auctions.CreateAuction)
	mux.HandleFunc("POST /api/auctions/{card_id}/bids", handlers.Auctions.PlaceBid)
	mux.HandleFunc("POST /api/auctions/{card_id}/end", handlers.Auctions.EndAuction)

	// User, battle, leaderboard, and collection endpoints.
	mux.HandleFunc("POST /api/users/stats", handlers.Users.InitializeStats)
	mux.HandleFunc("GET /api/users/{id}/stats", handlers.Users.GetStats)
	mux.Handle("POST /api/battles", admin(http.HandlerFunc(handlers.Users.RecordBattle)))
	mux.HandleFunc("GET /api/leaderboard", handlers.Users.Leaderboard)
	mux.Handle("POST /api/collections", admin(http.HandlerFunc(handlers.Users.CreateCollection)))
	mux.HandleFunc("GET /api/collections", handlers.Users.ListCollections)

	// Chest endpoints.
	mux.HandleFunc("POST /api/chests/open", handlers.Chests.OpenChest)
	mux.HandleFunc("GET /api/users/{id}/chests", handlers.Chests.History)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
