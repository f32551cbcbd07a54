// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cart implements the shopping-cart state container.
//
// # Description
//
// Store owns the authoritative, ordered, id-unique list of cart lines and
// keeps a persisted copy in a storage.KV under one fixed key. The list is
// changed only through AddToCart, Increment and Decrement; every change is
// visible immediately to readers and subscribers, and the full list is
// then handed to a single background writer.
//
// # Lifecycle
//
//	store, _ := cart.NewStore(kv, cart.DefaultConfig())
//	store.Start(ctx)        // async load, or store.Load(ctx) to wait
//	<-store.Ready()
//	_ = store.AddToCart(product)
//	_ = store.Close(ctx)    // flushes pending writes
//
// Mutations made before the load resolves are replayed onto the loaded
// list, and nothing is written until then, so an early write can never
// clobber the stored cart.
//
// # Thread Safety
//
// Store is safe for concurrent use. Mutations are applied in the order
// their calls acquire the store lock.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/GoMarketplace/services/cart/datatypes"
	"github.com/AleutianAI/GoMarketplace/services/cart/storage"
)

// DefaultStorageKey is the fixed key the cart list is stored under.
const DefaultStorageKey = "@GoMarketplace:cart"

// tracerName is the instrumentation scope of cart spans.
const tracerName = "gomarketplace.cart"

var (
	// ErrNoStorage is returned by NewStore when no KV is wired in.
	ErrNoStorage = errors.New("cart store requires a storage backend")

	// ErrClosed is returned by operations on a store after Close.
	ErrClosed = errors.New("cart store is closed")

	// ErrInvalidProduct wraps validation failures from AddToCart.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrPersistFailed wraps the storage error of a failed write, as
	// reported by Flush and Close.
	ErrPersistFailed = errors.New("cart persistence failed")
)

// Config configures a Store.
type Config struct {
	// StorageKey is the KV key holding the serialized list.
	// Default: DefaultStorageKey.
	StorageKey string

	// ClearOnStart wipes the whole KV before loading, so every session
	// starts with an empty cart. Off by default.
	ClearOnStart bool

	// Logger receives store events. Default: slog.Default().
	Logger *slog.Logger

	// TracerProvider creates the load and write spans.
	// Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
}

// DefaultConfig returns a Config with the default key and no clearing.
func DefaultConfig() Config {
	return Config{StorageKey: DefaultStorageKey}
}

// Store is the cart state container.
type Store struct {
	id     string
	kv     storage.KV
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
	writer *persister

	mu          sync.Mutex
	items       []datatypes.CartItem
	loaded      bool
	loadStarted bool
	pending     []mutation
	closed      bool
	subs    map[int]chan []datatypes.CartItem
	nextSub int

	loadOnce sync.Once
	ready    chan struct{}
}

// NewStore creates a store over kv.
//
// Description:
//
//	The store starts empty and unloaded. Call Start or Load once to read
//	the persisted list. The background writer starts immediately.
//
// Inputs:
//
//	kv - Persistent key-value store. Must not be nil.
//	cfg - Store configuration. Zero fields take defaults.
//
// Outputs:
//
//	*Store - The store. Call Close when done.
//	error - ErrNoStorage if kv is nil.
func NewStore(kv storage.KV, cfg Config) (*Store, error) {
	if kv == nil {
		return nil, ErrNoStorage
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	tracer := cfg.TracerProvider.Tracer(tracerName)

	id := uuid.NewString()
	logger := cfg.Logger.With(slog.String("store_id", id))

	return &Store{
		id:     id,
		kv:     kv,
		cfg:    cfg,
		logger: logger,
		tracer: tracer,
		writer: newPersister(kv, cfg.StorageKey, logger, tracer),
		items:  []datatypes.CartItem{},
		subs:   make(map[int]chan []datatypes.CartItem),
		ready:  make(chan struct{}),
	}, nil
}

// ID returns the identifier of this store lifetime, used in logs.
func (s *Store) ID() string {
	return s.id
}

// =============================================================================
// Loading
// =============================================================================

// Start begins the startup load in the background and returns at once.
// Ready is closed when the load resolves.
func (s *Store) Start(ctx context.Context) {
	go func() {
		_ = s.Load(ctx)
	}()
}

// Ready returns a channel closed once the startup load has resolved.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Load reads the persisted list and adopts it.
//
// Description:
//
//	Runs once per store; later calls wait for the first and return.
//	With ClearOnStart set, the KV is cleared first. A missing, unreadable
//	or unparsable value yields an empty cart; those conditions are logged
//	and never returned. A parsed list is normalized (see
//	datatypes.Normalize). Mutations recorded before the load are replayed
//	in order on top of the loaded list, and the result is persisted.
//
// Inputs:
//
//	ctx - Bounds the storage reads.
//
// Outputs:
//
//	error - ErrClosed if the store was closed before loading.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.loadStarted = true
	}
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	s.loadOnce.Do(func() {
		defer close(s.ready)
		s.load(ctx)
	})
	return nil
}

// load runs at most once. A Close that arrives meanwhile waits for it, so
// the replayed list is still handed to the writer before it stops.
func (s *Store) load(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "cart.store.load",
		trace.WithAttributes(
			attribute.String("cart.storage_key", s.cfg.StorageKey),
			attribute.Bool("cart.clear_on_start", s.cfg.ClearOnStart),
		),
	)
	defer span.End()

	if s.cfg.ClearOnStart {
		if err := s.kv.Clear(ctx); err != nil {
			s.logger.Warn("cart clear on start failed", slog.String("error", err.Error()))
		} else {
			s.logger.Info("cart storage cleared on start")
		}
	}

	base, normalized, result, readErr := s.readPersisted(ctx)
	span.SetAttributes(
		attribute.String("cart.load.result", result),
		attribute.Bool("cart.load.normalized", normalized),
	)
	if readErr != nil {
		span.RecordError(readErr)
		span.SetStatus(codes.Error, readErr.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := base
	for _, m := range s.pending {
		items, _ = m.apply(items)
	}
	replayed := len(s.pending)
	s.pending = nil
	s.items = items
	s.loaded = true

	s.logger.Info("cart loaded",
		slog.Int("lines", len(items)),
		slog.Int("replayed", replayed),
		slog.Bool("closing", s.closed))
	span.SetAttributes(
		attribute.Int("cart.load.lines", len(items)),
		attribute.Int("cart.load.replayed", replayed),
	)

	if replayed > 0 || normalized {
		s.persistLocked()
	}
	s.publishLocked()
}

// Load results, shared by the load metric and the load span.
const (
	loadRestored  = "restored"
	loadEmpty     = "empty"
	loadCorrupt   = "corrupt"
	loadReadError = "read_error"
)

// readPersisted returns the stored list, or an empty one on any failure.
// The bool reports whether normalization changed the stored data. The
// error is only for tracing; callers never propagate it.
func (s *Store) readPersisted(ctx context.Context) ([]datatypes.CartItem, bool, string, error) {
	raw, found, err := s.kv.Get(ctx, s.cfg.StorageKey)
	if err != nil {
		recordLoad(loadReadError)
		s.logger.Warn("cart read failed, starting empty",
			slog.String("key", s.cfg.StorageKey),
			slog.String("error", err.Error()))
		return []datatypes.CartItem{}, false, loadReadError, err
	}
	if !found {
		recordLoad(loadEmpty)
		return []datatypes.CartItem{}, false, loadEmpty, nil
	}

	decoded, err := datatypes.DecodeItems(raw)
	if err != nil {
		recordLoad(loadCorrupt)
		s.logger.Warn("cart data unreadable, starting empty",
			slog.String("key", s.cfg.StorageKey),
			slog.String("error", err.Error()))
		return []datatypes.CartItem{}, false, loadCorrupt, err
	}

	items, changed := datatypes.Normalize(decoded)

	// Normalize cannot repair everything, e.g. a merged quantity that
	// overflowed.
	valid := items[:0]
	for _, item := range items {
		if err := item.Validate(); err != nil {
			s.logger.Warn("dropping invalid cart line",
				slog.String("id", item.ID),
				slog.String("error", err.Error()))
			changed = true
			continue
		}
		valid = append(valid, item)
	}
	items = valid

	if changed {
		s.logger.Warn("cart data normalized on load",
			slog.Int("stored_lines", len(decoded)),
			slog.Int("lines", len(items)))
	}
	recordLoad(loadRestored)
	return items, changed, loadRestored, nil
}

// =============================================================================
// Operations
// =============================================================================

// AddToCart adds one unit of p.
//
// An existing line with p.ID gains one unit and keeps its stored title,
// image and price; otherwise p is appended with quantity 1. Adding the
// same product again is never an error.
//
// Outputs:
//
//	error - ErrInvalidProduct (wrapped) for a blank id or bad price;
//	        ErrClosed after Close.
func (s *Store) AddToCart(p datatypes.Product) error {
	if err := p.Validate(); err != nil {
		recordMutation(string(opAdd), "invalid")
		return fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}
	return s.mutate(mutation{kind: opAdd, id: p.ID, product: p})
}

// Increment adds one unit to the line with id. Unknown ids are a no-op.
func (s *Store) Increment(id string) error {
	return s.mutate(mutation{kind: opIncrement, id: id})
}

// Decrement removes one unit from the line with id while its quantity is
// above 1. At quantity 1, or for unknown ids, it is a no-op.
func (s *Store) Decrement(id string) error {
	return s.mutate(mutation{kind: opDecrement, id: id})
}

func (s *Store) mutate(m mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		recordMutation(string(m.kind), "closed")
		return ErrClosed
	}

	next, changed := m.apply(s.items)
	if !changed {
		recordMutation(string(m.kind), "noop")
		s.logger.Debug("cart mutation was a no-op",
			slog.String("op", string(m.kind)),
			slog.String("id", m.id))
		return nil
	}

	s.items = next
	recordMutation(string(m.kind), "applied")

	if s.loaded {
		s.persistLocked()
	} else {
		s.pending = append(s.pending, m)
	}
	s.publishLocked()
	return nil
}

// persistLocked hands the whole current list to the writer.
// Callers must hold s.mu so snapshots are queued in mutation order.
func (s *Store) persistLocked() {
	raw, err := datatypes.EncodeItems(s.items)
	if err != nil {
		s.logger.Error("cart encode failed", slog.String("error", err.Error()))
		return
	}
	s.writer.enqueue(raw)
}

// =============================================================================
// Reads
// =============================================================================

// Items returns a copy of the current list in display order.
func (s *Store) Items() []datatypes.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return datatypes.CloneItems(s.items)
}

// Subscribe returns a channel that receives the list after every change.
//
// The channel holds at most one value: a slow reader skips intermediate
// states and always sees the latest. The current list is delivered
// immediately. Call the returned cancel func to unsubscribe; the channel
// is closed on cancel or when the store closes.
func (s *Store) Subscribe() (<-chan []datatypes.CartItem, func()) {
	ch := make(chan []datatypes.CartItem, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- datatypes.CloneItems(s.items)
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// publishLocked delivers the current list to every subscriber, replacing
// any value they have not read yet. Callers must hold s.mu.
func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		snapshot := datatypes.CloneItems(s.items)
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// =============================================================================
// Shutdown
// =============================================================================

// Flush waits for every write queued so far.
//
// Outputs:
//
//	error - ctx.Err() on timeout; ErrPersistFailed (wrapped) if the last
//	        covering write failed; ErrClosed after Close.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return s.writer.flush(ctx)
}

// Close ends the store lifetime.
//
// Description:
//
//	Rejects further mutations and closes subscriber channels. A load that
//	is still running is waited for; it replays the mutations recorded
//	before it and queues the result. Then the writer finishes pending
//	snapshots. Once Close returns nil the store no longer touches the KV,
//	which the caller owns and may close. If no load ever ran, Ready is
//	closed here. A second Close returns nil.
//
// Outputs:
//
//	error - ctx.Err() (wrapped) if the load or pending writes outlive
//	        ctx, or ErrPersistFailed (wrapped) if the final write failed.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	loadStarted := s.loadStarted
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	if loadStarted {
		select {
		case <-s.ready:
		case <-ctx.Done():
			_ = s.writer.close(ctx)
			s.logger.Warn("cart store closed before load finished")
			return fmt.Errorf("waiting for cart load: %w", ctx.Err())
		}
	} else {
		s.loadOnce.Do(func() { close(s.ready) })
	}

	err := s.writer.close(ctx)
	s.logger.Debug("cart store closed")
	return err
}
