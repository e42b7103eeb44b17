package app

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pookielabs/cardmarket/internal/domain"
	"github.com/pookielabs/cardmarket/internal/notify"
	"github.com/pookielabs/cardmarket/internal/server"
	"github.com/pookielabs/cardmarket/internal/server/handler"
	"github.com/pookielabs/cardmarket/internal/server/ws"
	"github.com/pookielabs/cardmarket/internal/service"
)

// services bundles the concrete service layer shared by the HTTP server
// and the background workers.
type services struct {
	cards       *service.CardService
	progression *service.ProgressionService
	market      *service.MarketService
	auctions    *service.AuctionService
	stats       *service.StatsService
	chests      *service.ChestService
}

func (a *App) buildServices(deps *Dependencies) *services {
	now := service.Clock(time.Now)
	costs := map[domain.ChestKind]uint64{
		domain.ChestCommon:    a.cfg.Chests.CommonCost,
		domain.ChestRare:      a.cfg.Chests.RareCost,
		domain.ChestLegendary: a.cfg.Chests.LegendaryCost,
	}

	return &services{
		cards:       service.NewCardService(deps.Postgres, deps.LockManager, deps.CardCache, deps.SignalBus, a.logger, now),
		progression: service.NewProgressionService(deps.Postgres, deps.LockManager, deps.CardCache, deps.SignalBus, a.logger, now),
		market:      service.NewMarketService(deps.Postgres, deps.LockManager, deps.CardCache, deps.SignalBus, a.logger, now),
		auctions:    service.NewAuctionService(deps.Postgres, deps.LockManager, deps.CardCache, deps.SignalBus, a.logger, now),
		stats:       service.NewStatsService(deps.Postgres, deps.SignalBus, a.logger, now),
		chests:      service.NewChestService(deps.Postgres, deps.SignalBus, a.logger, now, costs, rand.Float64),
	}
}

// ServerMode runs the HTTP and WebSocket API.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, a.buildServices(deps))
	return g.Wait()
}

// WorkerMode runs the background loops only: the auction expiry sweep and
// the cold-storage archive cycle.
func (a *App) WorkerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting worker mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startWorkers(ctx, g, deps, a.buildServices(deps))
	return g.Wait()
}

// FullMode runs the API server and the background workers in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)
	a.startWorkers(ctx, g, deps, svcs)
	return g.Wait()
}

func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	if deps.Notifier.Enabled() {
		listener := notify.NewListener(deps.SignalBus, deps.Notifier, a.logger)
		g.Go(func() error {
			return listener.Run(ctx)
		})
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": deps.Postgres,
			"redis":    deps.Redis,
		}, a.logger),
		Cards:       handler.NewCardHandler(svcs.cards, a.logger),
		Progression: handler.NewProgressionHandler(svcs.progression, a.logger),
		Market:      handler.NewMarketHandler(svcs.market, a.logger),
		Auctions:    handler.NewAuctionHandler(svcs.auctions, a.logger),
		Users:       handler.NewUserHandler(svcs.stats, a.logger),
		Chests:      handler.NewChestHandler(svcs.chests, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		AdminAuth:   deps.AdminAuth,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

func (a *App) startWorkers(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	// Expiry sweep: publish expired auctions so clients learn an auction
	// ended even when nobody calls the end endpoint.
	g.Go(func() error {
		interval := a.cfg.Worker.ExpirySweepInterval.Duration
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		a.logger.InfoContext(ctx, "expiry sweep started",
			slog.Duration("interval", interval),
			slog.Int("batch", a.cfg.Worker.ExpirySweepBatch),
		)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				n, err := svcs.auctions.PublishExpired(ctx, a.cfg.Worker.ExpirySweepBatch)
				if err != nil {
					a.logger.WarnContext(ctx, "expiry sweep failed",
						slog.String("error", err.Error()),
					)
					continue
				}
				if n > 0 {
					a.logger.InfoContext(ctx, "expired auctions published", slog.Int("count", n))
				}
			}
		}
	})

	// Archive cycle: move closed sales and old audit rows to cold storage.
	if deps.Archiver == nil {
		a.logger.InfoContext(ctx, "archive cycle disabled (no object storage)")
		return
	}
	g.Go(func() error {
		interval := a.cfg.Worker.ArchiveInterval.Duration
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		a.logger.InfoContext(ctx, "archive cycle started",
			slog.Duration("interval", interval),
			slog.Int("retention_days", a.cfg.Worker.ArchiveRetentionDays),
		)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Worker.ArchiveRetentionDays)
				if n, err := deps.Archiver.ArchiveSales(ctx, cutoff); err != nil {
					a.logger.WarnContext(ctx, "sale archive failed",
						slog.String("error", err.Error()),
					)
				} else if n > 0 {
					a.logger.InfoContext(ctx, "sales archived", slog.Int64("count", n))
				}
				if n, err := deps.Archiver.ArchiveAuditLog(ctx, cutoff); err != nil {
					a.logger.WarnContext(ctx, "audit archive failed",
						slog.String("error", err.Error()),
					)
				} else if n > 0 {
					a.logger.InfoContext(ctx, "audit rows archived", slog.Int64("count", n))
				}
			}
		}
	})
}
