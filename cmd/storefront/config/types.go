// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"time"
)

// Storage drivers accepted in storage.driver.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type StorefrontConfig struct {
	// Storage: which KV backend holds the persisted cart
	Storage StorageConfig `yaml:"storage"`

	// Cart: store behaviour
	Cart CartConfig `yaml:"cart"`

	// Currency: how prices are shown
	Currency CurrencyConfig `yaml:"currency"`

	Logging LoggingConfig `yaml:"logging"`

	// Metrics: empty addr disables the /metrics server
	Metrics MetricsConfig `yaml:"metrics"`
}

type StorageConfig struct {
	Driver     string        `yaml:"driver" env:"STOREFRONT_STORAGE_DRIVER" validate:"oneof=badger sqlite memory"`
	Path       string        `yaml:"path" env:"STOREFRONT_STORAGE_PATH"`
	InMemory   bool          `yaml:"in_memory" env:"STOREFRONT_STORAGE_IN_MEMORY"`   // badger only
	SyncWrites bool          `yaml:"sync_writes" env:"STOREFRONT_STORAGE_SYNC_WRITES"` // badger only
	GCInterval time.Duration `yaml:"gc_interval" env:"STOREFRONT_STORAGE_GC_INTERVAL" validate:"gte=0"`
}

type CartConfig struct {
	StorageKey   string `yaml:"storage_key" env:"STOREFRONT_CART_STORAGE_KEY" validate:"required"`
	ClearOnStart bool   `yaml:"clear_on_start" env:"STOREFRONT_CLEAR_ON_START"`
}

type CurrencyConfig struct {
	Locale string `yaml:"locale" env:"STOREFRONT_CURRENCY_LOCALE"` // e.g. pt-BR
	Code   string `yaml:"code" env:"STOREFRONT_CURRENCY_CODE"`     // e.g. BRL
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"STOREFRONT_LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty" env:"STOREFRONT_LOG_DIR"`
	JSON  bool   `yaml:"json" env:"STOREFRONT_LOG_JSON"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty" env:"STOREFRONT_METRICS_ADDR"` // e.g. 127.0.0.1:9464
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() StorefrontConfig {
	return StorefrontConfig{
		Storage: StorageConfig{
			Driver:     DriverBadger,
			Path:       "~/.gomarketplace/cart",
			SyncWrites: true,
			GCInterval: 10 * time.Minute,
		},
		Cart: CartConfig{
			StorageKey: "@GoMarketplace:cart",
		},
		Currency: CurrencyConfig{
			Locale: "pt-BR",
			Code:   "BRL",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
