package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"

	"github.com/mmstream/hlsgate/pkg/hlsgate"
	"github.com/mmstream/hlsgate/pkg/hlsgate/api"
	"github.com/mmstream/hlsgate/pkg/hlsgate/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := httplog.NewLogger("hlsgate", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  true,
		JSON:     cfg.Environment != "development",
	})

	// A broken tenant table does not stop the process: ping and health stay
	// up, media requests answer 500 with the load error until it is fixed.
	registry, regErr := cfg.BuildRegistry()
	if regErr != nil {
		logger.Error("tenant registry unavailable, media requests will fail", "error", regErr)
	} else {
		logger.Info("tenant registry loaded", "accounts", registry.Accounts())
	}

	svc := hlsgate.New(
		hlsgate.WithExpiries(cfg.ManifestExpiry, cfg.DownloadExpiry),
		hlsgate.WithRewriteConcurrency(cfg.RewriteConcurrency),
		hlsgate.WithLogger(logger.Logger),
	)

	handler := api.NewGatewayHandler(svc, registry, regErr).WithLogger(logger.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Mount("/", handler.Routes())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("gateway starting", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
}
