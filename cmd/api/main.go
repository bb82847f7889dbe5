package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch-voice-go/internal/call"
	"dispatch-voice-go/internal/config"
	"dispatch-voice-go/internal/httpapi"
	"dispatch-voice-go/internal/logger"
	"dispatch-voice-go/internal/results"
	"dispatch-voice-go/internal/scenario"
)

func main() {
	cfg := config.Load() // loads .env

	log := logger.New()
	log.WithField("environment", cfg.Environment).Info("starting service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// scenarios: built-ins plus hot-reloaded YAML
	reg := scenario.NewRegistry()
	if cfg.ScenarioDir != "" {
		w := scenario.NewWatcher(cfg.ScenarioDir, reg, log)
		if err := w.Start(ctx); err != nil {
			log.WithError(err).WithField("dir", cfg.ScenarioDir).Fatal("failed to watch scenarios")
		}
	}
	if _, err := reg.Get(cfg.DefaultScenario); err != nil {
		log.WithError(err).Fatal("default scenario missing")
	}

	// results: sqlite store and optional webhook
	store, err := results.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).WithField("db_path", cfg.DBPath).Fatal("failed to open results store")
	}
	defer store.Close()
	sinks := results.NewMultiSink(log).Add("sqlite", store)
	if cfg.WebhookURL != "" {
		sinks.Add("webhook", results.NewWebhook(cfg.WebhookURL, cfg.WebhookTimeout, cfg.WebhookMaxRetry, log))
		log.WithField("webhook_url", cfg.WebhookURL).Info("results webhook enabled")
	}

	calls := call.NewManager(reg, sinks, log,
		call.WithDefaultScenario(cfg.DefaultScenario),
		call.WithRetention(cfg.CallRetention),
	)
	go calls.Run(ctx, time.Minute)

	mux := http.NewServeMux()
	httpapi.NewRouter(calls, reg, store, log).Register(mux)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}
