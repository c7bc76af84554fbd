package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"challengeflow/analytics"
	"challengeflow/config"
	"challengeflow/db"
	"challengeflow/dispute"
	"challengeflow/report"
	"challengeflow/snapshot"
)

// app is the wired engine for one CLI invocation.
type app struct {
	cfg     config.Config
	svc     *analytics.Service
	pool    *pgxpool.Pool
	closers []func(context.Context) error
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgFile)
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.Logger(os.Stderr)

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, pool: pool}

	var store dispute.Store = dispute.NewPGStore(pool)
	if cfg.Records.Driver == config.DriverMongo {
		m := cfg.Records.Mongo
		mongoStore, disconnect, err := dispute.ConnectMongo(ctx, m.URI, m.Database, m.Collection)
		if err != nil {
			pool.Close()
			return nil, err
		}
		a.closers = append(a.closers, disconnect)
		store = mongoStore
	}

	cache := snapshot.NewCache(snapshot.NewPGStore(pool), cfg.SnapshotPolicy())
	a.svc = analytics.NewService(store, report.NewPGRepository(pool), cache, cfg.Engine()).WithLogger(logger)
	return a, nil
}

func (a *app) Close(ctx context.Context) {
	for _, c := range a.closers {
		_ = c(ctx)
	}
	a.pool.Close()
}

// withService opens the engine, runs fn and releases every connection.
func withService(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer a.Close(context.WithoutCancel(ctx))
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
