package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftchat/match-service/config"
	"github.com/driftchat/match-service/internal/service"
	httpx "github.com/driftchat/match-service/internal/transport/http"
	"github.com/driftchat/match-service/internal/transport/ws"
	"github.com/driftchat/match-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting match-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- matching engine ---
	hub := ws.NewHub()
	matchSvc := service.NewMatchService(service.NewRegistry(), hub)

	// --- WS Server ---
	wsServer := ws.NewServer(hub, matchSvc, ws.Options{
		PingInterval:   cfg.PingEvery(),
		ReadLimit:      cfg.WS.ReadLimit,
		AllowedOrigins: cfg.WS.AllowedOrigins,
	})

	// --- HTTP ---
	handler := httpx.NewHandler(matchSvc)
	router := httpx.NewRouter(handler, wsServer, cfg.WS.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
