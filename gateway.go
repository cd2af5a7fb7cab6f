package main

import (
	"context"

	"github.com/gr-butler/highlow/config"
	"github.com/gr-butler/highlow/store"
	"github.com/gr-butler/highlow/store/memory"
	"github.com/gr-butler/highlow/store/postgres"
	logger "github.com/sirupsen/logrus"
)

// openGateway returns the store the station runs on and its schema handle.
// Test mode always uses the in-memory store.
func openGateway(ctx context.Context, cfg *config.Config, testMode bool) (store.Gateway, store.Schema, error) {
	if testMode || cfg.Database.Driver == config.DriverMemory {
		logger.Info("Using in-memory store, nothing is persisted")
		m := memory.New()
		return m, m, nil
	}
	pg, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return store.WithRetry(pg, cfg.Retry.Attempts, cfg.Retry.Delay), pg, nil
}
