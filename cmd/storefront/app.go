// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AleutianAI/GoMarketplace/cmd/storefront/config"
	"github.com/AleutianAI/GoMarketplace/pkg/currency"
	"github.com/AleutianAI/GoMarketplace/pkg/logging"
	"github.com/AleutianAI/GoMarketplace/services/cart"
	"github.com/AleutianAI/GoMarketplace/services/cart/storage"
	"github.com/AleutianAI/GoMarketplace/services/cart/storage/badger"
	"github.com/AleutianAI/GoMarketplace/services/cart/storage/sqlite"
	"github.com/AleutianAI/GoMarketplace/services/cart/view"
)

// =============================================================================
// Composition root
// =============================================================================

// app is everything a command needs: the store, the view over it and the
// resources that must be released afterwards.
type app struct {
	cfg    config.StorefrontConfig
	logger *logging.Logger
	kv     storage.KV
	store  *cart.Store
	view   *view.View

	closeKV func() error
}

// openApp loads config, opens the configured KV and builds the store.
//
// Description:
//
//	Flag overrides win over the config file and environment. With quiet
//	set, console logging is off so the interactive screen stays clean;
//	file logging (logging.dir) is unaffected. The store is returned
//	unloaded; callers pick synchronous Load or background Start.
//
// Inputs:
//
//	opts - Persistent flags.
//	stderr - Console log destination.
//	quiet - Disable console logging.
//
// Outputs:
//
//	*app - Call close when done.
//	error - Config, storage or currency setup failure.
func openApp(opts *rootOptions, stderr io.Writer, quiet bool) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "storefront",
		JSON:    cfg.Logging.JSON,
		Quiet:   quiet,
		Output:  stderr,
	})

	formatter, err := currency.New(cfg.Currency.Locale, cfg.Currency.Code)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	kv, closeKV, err := openKV(cfg.Storage, logger.Slog())
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	store, err := cart.NewStore(kv, cart.Config{
		StorageKey:   cfg.Cart.StorageKey,
		ClearOnStart: cfg.Cart.ClearOnStart,
		Logger:       logger.Slog(),
	})
	if err != nil {
		_ = closeKV()
		_ = logger.Close()
		return nil, err
	}

	v, err := view.New(store, formatter)
	if err != nil {
		_ = store.Close(context.Background())
		_ = closeKV()
		_ = logger.Close()
		return nil, err
	}

	logger.Debug("storefront ready",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("store_id", store.ID()),
		slog.String("locale", formatter.Locale()),
		slog.String("currency", formatter.Code()),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		kv:      kv,
		store:   store,
		view:    v,
		closeKV: closeKV,
	}, nil
}

// close flushes the store, then releases the KV and the log file.
func (a *app) close(ctx context.Context) error {
	storeErr := a.store.Close(ctx)
	if storeErr != nil {
		a.logger.Error("cart not fully persisted", slog.String("error", storeErr.Error()))
	}
	return errors.Join(storeErr, a.closeKV(), a.logger.Close())
}

// openKV opens the backend named by cfg.Driver.
func openKV(cfg config.StorageConfig, logger *slog.Logger) (storage.KV, func() error, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		bcfg := badger.DefaultConfig()
		bcfg.Path = cfg.Path
		bcfg.InMemory = cfg.InMemory
		bcfg.SyncWrites = cfg.SyncWrites
		bcfg.GCInterval = cfg.GCInterval
		bcfg.Logger = logger
		if cfg.InMemory {
			bcfg.Path = ""
		}
		kv, err := badger.OpenKV(bcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger storage at %s: %w", cfg.Path, err)
		}
		logger.Debug("badger storage opened",
			slog.String("path", kv.DB().Path()),
			slog.Bool("in_memory", kv.DB().InMemory()))
		return kv, kv.Close, nil

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		kv, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv.Close, nil

	case config.DriverMemory:
		kv := storage.NewMemory()
		return kv, kv.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
