package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"challengeflow/analytics"
	"challengeflow/auth"
	"challengeflow/config"
	"challengeflow/db"
	"challengeflow/dispute"
	"challengeflow/metrics"
	"challengeflow/report"
	"challengeflow/snapshot"
)

func main() {
	configPath := flag.String("config", os.Getenv("CHALLENGEFLOW_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("auth.jwt_secret (or CHALLENGEFLOW_JWT_SECRET) is required")
	}
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	var store dispute.Store = dispute.NewPGStore(pool)
	if cfg.Records.Driver == config.DriverMongo {
		m := cfg.Records.Mongo
		mongoStore, disconnect, err := dispute.ConnectMongo(ctx, m.URI, m.Database, m.Collection)
		if err != nil {
			log.Fatalf("bootstrap record store: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = disconnect(shutdownCtx)
		}()
		store = mongoStore
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	analyticsCfg := cfg.Engine()
	cache := snapshot.NewCache(snapshot.NewPGStore(pool), cfg.SnapshotPolicy())
	svc := analytics.NewService(store, report.NewPGRepository(pool), cache, analyticsCfg).
		WithLogger(logger).
		WithMetrics(metrics.NewRecorder(registry))

	tokens := auth.NewService(auth.NewStaticClients(clientsFrom(cfg.Auth.Clients)...), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := NewServer(svc, tokens, registry, logger, analyticsCfg.Location)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("analytics api listening", slog.String("addr", cfg.Server.Addr), slog.String("records", cfg.Records.Driver))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	}
}

func clientsFrom(in []config.Client) []auth.Client {
	out := make([]auth.Client, 0, len(in))
	for _, c := range in {
		out = append(out, auth.Client{
			ID:         c.ID,
			SecretHash: c.SecretHash,
			CompanyID:  c.CompanyID,
			Role:       auth.Role(c.Role),
		})
	}
	return out
}
