// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/GoMarketplace/services/cart/storage"
)

// KV implements storage.KV on top of a DB.
//
// Thread Safety: Safe for concurrent use.
type KV struct {
	db *DB
}

// OpenKV opens a DB from cfg and wraps it. Close the KV to close the DB.
func OpenKV(cfg Config) (*KV, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	return &KV{db: db}, nil
}

// Get reads key. A missing key is reported as found=false.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value []byte
	err := k.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapErr(fmt.Errorf("badger get %q: %w", key, err))
	}
	return string(value), true, nil
}

// Set writes key in its own transaction.
func (k *KV) Set(ctx context.Context, key, value string) error {
	err := k.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return mapErr(fmt.Errorf("badger set %q: %w", key, err))
	}
	return nil
}

// Clear drops every key in the database.
func (k *KV) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := k.db.DropAll(); err != nil {
		return mapErr(fmt.Errorf("badger clear: %w", err))
	}
	return nil
}

// Close closes the underlying DB.
func (k *KV) Close() error {
	return k.db.Close()
}

// DB exposes the managed database.
func (k *KV) DB() *DB {
	return k.db
}

// mapErr attaches storage.ErrClosed to badger's closed-DB error.
func mapErr(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %w", storage.ErrClosed, err)
	}
	return err
}

var _ storage.KV = (*KV)(nil)
