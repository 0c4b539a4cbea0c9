// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/config"
	"github.com/spacedog-labs/wikiracer/internal/database"
	"github.com/spacedog-labs/wikiracer/internal/handlers"
	"github.com/spacedog-labs/wikiracer/internal/lobby"
	"github.com/spacedog-labs/wikiracer/internal/nav"
	"github.com/spacedog-labs/wikiracer/internal/profanity"
	"github.com/spacedog-labs/wikiracer/internal/session"
	"github.com/spacedog-labs/wikiracer/internal/store"
	"github.com/spacedog-labs/wikiracer/internal/syncer"
	"github.com/spacedog-labs/wikiracer/internal/wiki"
	"github.com/spacedog-labs/wikiracer/internal/ws"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if cfg.JWTKeyPath != "" {
		if err := auth.InitFromPath(cfg.JWTKeyPath+".priv", cfg.JWTKeyPath+".pub"); err != nil {
			logger.Fatalf("auth keys: %v", err)
		}
	} else {
		auth.Init()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	rdb, err := store.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	lobbies := store.NewRedisLobbyStore(rdb)
	games := store.NewRedisGameStore(rdb)
	clock := clockwork.NewRealClock()
	fetcher := wiki.NewClient(cfg.WikiBaseURL)
	hub := ws.NewHub(logger)

	lobbySvc := &lobby.Service{
		Lobbies: lobbies,
		Games:   games,
		Users:   repo,
		Filter:  profanity.NewDetector(),
		Clock:   clock,
	}
	sessionSvc := &session.Service{
		Lobbies: lobbies,
		Games:   games,
		Users:   repo,
		Clock:   clock,
	}
	var stats nav.PageStatistics = repo
	if cfg.QueueViews {
		stats = store.NewViewQueue(rdb)
	}
	navSvc := &nav.Service{
		Lobbies: lobbies,
		Games:   games,
		Fetcher: fetcher,
		Stats:   stats,
		Clock:   clock,
	}

	srv := &handlers.Server{
		Logger:   logger,
		Resolver: auth.JWTResolver{},
		Lobby:    lobbySvc,
		Session:  sessionSvc,
		Nav:      navSvc,
		Wiki:     fetcher,
		Profiles: repo,
		Lobbies:  lobbies,
		Hub:      hub,

		AllowedOrigins: cfg.AllowedOrigins,
	}

	loop := &syncer.Loop{
		Lobbies:    lobbies,
		Games:      games,
		Users:      repo,
		Hub:        hub,
		Clock:      clock,
		Interval:   cfg.SyncInterval,
		StaleAfter: cfg.StaleAfter,
	}

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv.Routes(),
		ReadTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatalf("server exited: %v", err)
	}
}
