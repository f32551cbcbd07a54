// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/AleutianAI/GoMarketplace/services/cart/storage"
)

var errDiskFull = errors.New("disk full")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingKV wraps a Memory KV, records every Set value in order and can
// gate Get and Set until released.
type recordingKV struct {
	*storage.Memory

	mu       sync.Mutex
	writes   []string
	setErr   error
	getErr   error
	getGate  chan struct{}
	setGate  chan struct{}
	getEnter chan struct{}
}

func newRecordingKV() *recordingKV {
	return &recordingKV{Memory: storage.NewMemory()}
}

// gateGet makes Get block until the returned release func is called.
// entered is closed once Get is waiting.
func (k *recordingKV) gateGet() (entered <-chan struct{}, release func()) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.getGate = make(chan struct{})
	k.getEnter = make(chan struct{})
	gate := k.getGate
	return k.getEnter, func() { close(gate) }
}

// gateSet makes Set block until the returned release func is called.
func (k *recordingKV) gateSet() (release func()) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.setGate = make(chan struct{})
	gate := k.setGate
	return func() { close(gate) }
}

func (k *recordingKV) failSets(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.setErr = err
}

func (k *recordingKV) failGets(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.getErr = err
}

func (k *recordingKV) Get(ctx context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	gate, entered, err := k.getGate, k.getEnter, k.getErr
	k.getGate, k.getEnter = nil, nil
	k.mu.Unlock()

	if gate != nil {
		close(entered)
		<-gate
	}
	if err != nil {
		return "", false, err
	}
	return k.Memory.Get(ctx, key)
}

func (k *recordingKV) Set(ctx context.Context, key, value string) error {
	k.mu.Lock()
	gate, err := k.setGate, k.setErr
	k.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return err
	}

	k.mu.Lock()
	k.writes = append(k.writes, value)
	k.mu.Unlock()
	return k.Memory.Set(ctx, key, value)
}

func (k *recordingKV) Writes() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.writes))
	copy(out, k.writes)
	return out
}
