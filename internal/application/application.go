package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/config"
	"github.com/clubgreens/live-scoring-service/internal/database"
	"github.com/clubgreens/live-scoring-service/internal/handler"
	"github.com/clubgreens/live-scoring-service/internal/repository"
	"github.com/clubgreens/live-scoring-service/internal/router"
	"github.com/clubgreens/live-scoring-service/internal/service"
	"github.com/clubgreens/live-scoring-service/internal/ticket"
)

// API is the HTTP + WebSocket application.
type API struct {
	cfg      *config.Config
	srv      *http.Server
	db       *gorm.DB
	registry *broadcast.Registry
	rounds   *service.RoundService
	games    *service.GameService
	logger   *zap.Logger
}

// NewAPI builds the application: validates config, runs migrations, opens the
// database, and wires the registry, session managers, and router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	metrics := broadcast.NewMetrics(prometheus.DefaultRegisterer)
	registry := broadcast.NewRegistry(broadcast.Config{
		PingInterval:   cfg.PingInterval,
		StaleThreshold: cfg.StaleThreshold,
		SendBuffer:     cfg.WSSendBuffer,
	}, logger, metrics)

	tickets := ticket.NewIssuer(cfg.TicketSecret, cfg.TicketTTL)

	roundStore := repository.NewRoundRepository(db)
	gameStore := repository.NewGameRepository(db)
	static := repository.NewStaticRepository(db)
	results := repository.NewResultRepository(db)

	rounds := service.NewRoundService(roundStore, static, results, repository.NewAccountAuthorizer(db), registry, logger)
	games := service.NewGameService(gameStore, static, results, repository.NewGameAuthorizer(db), registry, logger)

	r := router.New(
		handler.NewRoundHandler(rounds),
		handler.NewGameHandler(games),
		handler.NewTicketHandler(tickets, cfg.WSBaseURL),
		handler.NewLiveWSHandler(registry, tickets, cfg.WSReadBufferSize, cfg.WSWriteBufferSize, logger),
		handler.NewHealthHandler(),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		// No global ReadTimeout/WriteTimeout: attach connections are
		// long-lived and must outlive any fixed deadline.
		IdleTimeout: 60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		srv:      srv,
		db:       db,
		registry: registry,
		rounds:   rounds,
		games:    games,
		logger:   logger,
	}, nil
}

// Run starts the HTTP server, the broadcast liveness loop, and the stale
// session sweep, then blocks until ctx is cancelled and shuts down
// gracefully: attached clients get a shutdown event before streams close.
func (a *API) Run(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()

	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.srv.Addr)
	log.Printf("  Health:    %s/health", base)
	log.Printf("  Rounds:    %s/live/rounds/:account_id", base)
	log.Printf("  Games:     %s/live/games/:game_id", base)
	log.Printf("  Attach:    ws://%s:%s/ws/live?ticket=...", host, a.cfg.HTTPPort)

	go a.registry.Run(ctx)
	go a.sweepSessions(ctx)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()

	a.registry.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// sweepSessions periodically abandons non-terminal sessions older than the
// configured max age. Independent of the registry's connection liveness
// sweep: a session can be abandoned while viewers are still attached.
func (a *API) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.rounds.CleanupStaleSessions(ctx, a.cfg.SessionMaxAge); err != nil {
				a.logger.Warn("round session sweep failed", zap.Error(err))
			}
			if _, err := a.games.CleanupStaleSessions(ctx, a.cfg.SessionMaxAge); err != nil {
				a.logger.Warn("game session sweep failed", zap.Error(err))
			}
		}
	}
}
