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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// DefaultPath returns ~/.gomarketplace/storefront.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".gomarketplace", "storefront.yaml"), nil
}

// Load reads the config file at path, creating it with defaults on first
// run, then applies STOREFRONT_* environment overrides.
//
// Inputs:
//
//	path - Config file location. Empty means DefaultPath().
//
// Outputs:
//
//	StorefrontConfig - Parsed, expanded and validated config.
//	error - Non-nil if the file cannot be created, read or parsed, or if
//	        the result is invalid.
func Load(path string) (StorefrontConfig, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return StorefrontConfig{}, err
		}
		path = p
	}

	// create it if it doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return StorefrontConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return StorefrontConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}

	// Start from defaults so sections missing from the file keep them.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return StorefrontConfig{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return StorefrontConfig{}, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.Storage.Path = ExpandHome(cfg.Storage.Path)
	cfg.Logging.Dir = ExpandHome(cfg.Logging.Dir)

	if err := cfg.Validate(); err != nil {
		return StorefrontConfig{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c StorefrontConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Driver != DriverMemory && !c.Storage.InMemory && strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("invalid config: storage.path is required for the " + c.Storage.Driver + " driver")
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
