package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lumi-hq/lumi-inbox/backend/internal/config"
	"github.com/lumi-hq/lumi-inbox/backend/internal/handler"
	assistHandler "github.com/lumi-hq/lumi-inbox/backend/internal/handler/assist"
	"github.com/lumi-hq/lumi-inbox/backend/internal/handler/conversation"
	"github.com/lumi-hq/lumi-inbox/backend/internal/logging"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/template"
	"github.com/lumi-hq/lumi-inbox/backend/internal/service/assist"
	inboxService "github.com/lumi-hq/lumi-inbox/backend/internal/service/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/internal/service/live"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Warn("failed to load .env file, continuing with system environment variables only", zap.Error(envErr))
	}

	store, err := loadStore(cfg.Inbox)
	if err != nil {
		logger.Fatal("failed to load inbox data", zap.Error(err))
	}

	hub := live.NewHub(64)
	inboxSvc := inboxService.NewService(store, inboxService.WithPublisher(hub))

	// A nil *assist.Service must not become a non-nil Suggester.
	var suggester assistHandler.Suggester
	if cfg.AI.Enabled() {
		assistSvc, err := assist.NewService(ctx, cfg.AI, logger.Named("assist"))
		if err != nil {
			logger.Warn("failed to initialize AI assistant, continuing without suggestions", zap.Error(err))
		} else {
			suggester = assistSvc
			logger.Info("AI assistant initialized", zap.Bool("stream", cfg.AI.StreamResponse))
		}
	} else {
		logger.Info("Ark credentials not configured, reply suggestions disabled")
	}

	router := handler.NewRouter(handler.Dependencies{
		Inbox:     inboxSvc,
		Templates: template.NewMemoryStore(template.Seed()),
		Live:      hub,
		Assist:    suggester,
		Display: conversation.Options{
			Locale:   cfg.Inbox.Locale,
			Timezone: cfg.Inbox.Timezone,
		},
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Lumi inbox backend listening", zap.String("addr", srv.Addr))
		return runServer(gctx, srv)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func loadStore(cfg config.InboxConfig) (*inbox.MemoryStore, error) {
	now := time.Now().UTC()
	if cfg.SeedFile == "" {
		return inbox.NewMemoryStore(inbox.Seed(now))
	}

	convs, msgs, err := inbox.LoadSeedFile(cfg.SeedFile, now)
	if err != nil {
		return nil, err
	}
	return inbox.NewMemoryStore(convs, msgs)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
