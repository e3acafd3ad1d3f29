package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ChamsBouzaiene/recap/internal/config"
	"github.com/ChamsBouzaiene/recap/internal/engine"
	"github.com/ChamsBouzaiene/recap/internal/ingest"
	"github.com/ChamsBouzaiene/recap/internal/providers"
	"github.com/ChamsBouzaiene/recap/internal/records"
	"github.com/ChamsBouzaiene/recap/internal/report"
)

type runtimeEnv struct {
	Cfg     *config.Config
	Store   *records.Store
	Index   *records.SearchIndex
	Reports *report.Store
	Loader  *ingest.Loader
}

func (r *runtimeEnv) Close() {
	if r.Index != nil {
		if err := r.Index.Close(); err != nil {
			log.Printf("⚠️  Failed to close search index: %v", err)
		}
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			log.Printf("⚠️  Failed to close records store: %v", err)
		}
	}
}

// prepareRuntimeEnv loads configuration and opens the data stores every
// command needs. Endpoint clients are built separately; only the digest
// command talks to the generation service.
func prepareRuntimeEnv(ctx context.Context, configDirFlag string) (*runtimeEnv, error) {
	var manager *config.Manager
	if configDirFlag != "" {
		manager = config.NewManagerAt(configDirFlag)
	} else {
		var err error
		manager, err = config.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config dir: %w", err)
		}
	}

	cfg, err := manager.Load()
	if err != nil {
		return nil, err
	}
	log.Printf("Config dir: %s", manager.Dir())

	if err := os.MkdirAll(manager.Dir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	store, err := records.NewStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	index, err := records.OpenSearchIndex(cfg.IndexPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &runtimeEnv{
		Cfg:     cfg,
		Store:   store,
		Index:   index,
		Reports: report.NewStore(manager.Dir()),
		Loader:  ingest.NewLoader(store, index),
	}, nil
}

// buildSender wires the configured endpoints into a rotating dispatcher.
func buildSender(cfg *config.Config) (engine.Sender, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured; add at least one to config.json")
	}

	endpoints, err := providers.BuildEndpoints(cfg)
	if err != nil {
		return nil, err
	}
	return engine.NewDispatcher(endpoints, engine.DispatcherConfig{
		Cooldown: cfg.Cooldown(),
	})
}
