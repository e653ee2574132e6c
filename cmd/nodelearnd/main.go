// Command nodelearnd runs the nodelearn exploration server: live knowledge
// trees over REST and WebSocket, with PostgreSQL-backed session history and
// archive search.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nodelearn/nodelearn/internal/api"
	"github.com/nodelearn/nodelearn/internal/archive"
	"github.com/nodelearn/nodelearn/internal/config"
	"github.com/nodelearn/nodelearn/internal/db"
	"github.com/nodelearn/nodelearn/internal/db/migrations"
	"github.com/nodelearn/nodelearn/internal/dbpool"
	"github.com/nodelearn/nodelearn/internal/provider"
	"github.com/nodelearn/nodelearn/internal/service"
	"github.com/nodelearn/nodelearn/internal/session"
	"github.com/nodelearn/nodelearn/internal/store"
	"github.com/nodelearn/nodelearn/internal/ws"
)

// version is set at build time via -ldflags.
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	suggester, err := newProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing suggestion provider: %w", err)
	}

	hub := ws.NewHub(log)
	registry := session.NewRegistry()
	index := archive.NewIndex()
	sessions := store.NewSessionStore(store.Base{Pool: pool, Log: log})

	explorer := service.NewExplorer(registry, suggester, sessions, index, hub, cfg, log)
	history := service.NewHistory(sessions, log)
	search := service.NewSearch(index, sessions, log)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Hub:         hub,
		Explorer:    explorer,
		History:     history,
		Search:      search,
		Stats:       sessions,
		Live:        explorer,
		CORSOrigins: cfg.CORSOrigins,
		Version:     version,
		Provider:    cfg.Provider,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)

		return nil
	})

	g.Go(func() error {
		// Hydration failure is survivable: the index refills as sessions end.
		if err := search.Hydrate(gctx); err != nil {
			log.WithError(err).Warn("archive index hydration failed")
		}

		return nil
	})

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Addr(),
			"provider": cfg.Provider,
			"version":  version,
		}).Info("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newProvider builds the configured suggestion provider.
func newProvider(ctx context.Context, cfg *config.Config) (service.SuggestionProvider, error) {
	switch cfg.Provider {
	case "groq":
		return provider.NewGroq(cfg.GroqURL, cfg.GroqAPIKey.Value(), cfg.GroqModel)
	default:
		return provider.NewGemini(ctx, cfg.GeminiAPIKey.Value(), cfg.GeminiModel)
	}
}
