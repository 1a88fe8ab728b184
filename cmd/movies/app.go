package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/liznear/golden-raspberry/config"
	"github.com/liznear/golden-raspberry/logging"
	"github.com/liznear/golden-raspberry/table"
)

// app bundles what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *table.DB
}

func openApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("fail to create data dir %s: %w", cfg.Storage.DataDir, err)
	}

	db, err := table.Open(cfg.Storage.DataDir,
		table.WithMaxLogSize(cfg.Storage.MaxLogSize),
		table.WithSyncWrites(cfg.Storage.SyncWrites),
		table.WithLogger(logger.Named("table")),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to open catalog: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) Close() error {
	err := a.db.Close()
	_ = a.logger.Sync()
	return err
}
