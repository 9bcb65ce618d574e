package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hamisigad71/rare-draw-demo1/internal/adapters/functions"
	httpadapter "github.com/hamisigad71/rare-draw-demo1/internal/adapters/http"
	"github.com/hamisigad71/rare-draw-demo1/internal/adapters/identity"
	"github.com/hamisigad71/rare-draw-demo1/internal/adapters/store"
	"github.com/hamisigad71/rare-draw-demo1/internal/adapters/ws"
	"github.com/hamisigad71/rare-draw-demo1/internal/app"
	"github.com/hamisigad71/rare-draw-demo1/internal/config"
	"github.com/hamisigad71/rare-draw-demo1/internal/ports"
)

// stdRNG delegates to math/rand/v2 (auto-seeded).
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	verifier := identity.NewVerifier(cfg.JWTSecret)

	var (
		access   ports.DeckAccess
		plays    ports.PlayCounter
		sessions ports.SessionStore
	)
	switch cfg.Backend {
	case config.BackendFunctions:
		client := functions.NewClient(
			&http.Client{Timeout: 30 * time.Second},
			cfg.FunctionsBaseURL,
			cfg.FunctionsAPIKey,
			logger,
		)
		access, plays, sessions = client, client, client
	case config.BackendSQLite:
		db, err := store.Open(cfg.SQLitePath, verifier, logger)
		if err != nil {
			logger.Error("failed to open store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		access, plays, sessions = db, db, db
	}

	// Graceful shutdown; also bounds in-flight session report submissions.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rng := stdRNG{}
	loader := app.NewDeckLoader(access, plays, rng, logger, cfg.PlayCountTimeout)
	reporter := app.NewReporter(sessions, logger, cfg.ReportTimeout)

	svc := app.NewGameService(app.GameServiceConfig{
		Loader:     loader,
		Reporter:   reporter,
		Verifier:   verifier,
		RNG:        rng,
		Clock:      time.Now,
		NewID:      uuid.NewString,
		Logger:     logger,
		BaseCtx:    ctx,
		SessionTTL: cfg.SessionTTL,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadapter.NewValidator()

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	handler := httpadapter.NewHandler(svc)
	handler.Register(e)

	stream := ws.NewStream(svc, logger)
	stream.Register(e)

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr, "backend", cfg.Backend)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
