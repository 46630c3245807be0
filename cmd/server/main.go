package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironreach/reactor-twin/internal/config"
	"github.com/ironreach/reactor-twin/internal/engine"
	"github.com/ironreach/reactor-twin/internal/generation"
	"github.com/ironreach/reactor-twin/internal/handler"
	"github.com/ironreach/reactor-twin/internal/rag"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Independent random sources: one per scheduled loop.
	simRng := rand.New(rand.NewSource(time.Now().UnixNano()))
	detRng := rand.New(rand.NewSource(time.Now().UnixNano() + 1))

	eng := engine.New(cfg, logger, simRng, detRng)
	go eng.Run(ctx)

	pipeline := rag.NewPipeline(cfg.EmbeddingDim, cfg.TopK)
	if cfg.DocsDir != "" {
		n, err := pipeline.Ingest(cfg.DocsDir)
		if err != nil {
			logger.Warn("document ingestion failed", "dir", cfg.DocsDir, "error", err)
		} else {
			logger.Info("documents ingested", "dir", cfg.DocsDir, "chunks", n)
		}
	}
	generator := generation.NewClient(cfg.HF)

	wsHandler := handler.NewWSHandler(eng, cfg.WriteTimeout, logger)
	chatHandler := handler.NewChatHandler(eng.Twin(), cfg.Zone, generator, pipeline, logger)
	stateHandler := handler.NewStateHandler(eng.Twin())
	healthHandler := handler.NewHealthHandler(eng)

	r := chi.NewRouter()
	r.Use(handler.RequestID)
	r.Use(handler.Logging(logger))
	r.Use(handler.Recovery(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ws", wsHandler.Serve)
	r.Post("/chat", chatHandler.Chat)
	r.Post("/rag/chat", chatHandler.RAGChat)
	r.Get("/v1/state", stateHandler.State)
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("reactor twin running", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
