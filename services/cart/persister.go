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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/GoMarketplace/services/cart/storage"
)

// persistJob is one full serialized cart snapshot.
type persistJob struct {
	seq   uint64
	value string
}

// persister is the single writer for the cart key.
//
// Description:
//
//	Mutations hand it whole-list snapshots tagged with increasing sequence
//	numbers. Only the newest unwritten snapshot is kept: an older one that
//	has not started writing is dropped when a newer one arrives. Writes
//	therefore land in invocation order and the last completed write is
//	always the newest state.
//
// Thread Safety: enqueue, flush and close are safe for concurrent use.
type persister struct {
	kv     storage.KV
	key    string
	logger *slog.Logger
	tracer trace.Tracer

	mu        sync.Mutex
	pending   *persistJob
	enqueued  uint64
	completed uint64
	lastErr   error
	progress  chan struct{}

	wake      chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// newPersister starts the writer goroutine. A nil tracer uses the global
// provider.
func newPersister(kv storage.KV, key string, logger *slog.Logger, tracer trace.Tracer) *persister {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	p := &persister{
		kv:       kv,
		key:      key,
		logger:   logger,
		tracer:   tracer,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go p.run()
	return p
}

// enqueue queues value for writing and returns its sequence number.
// It never blocks on storage.
func (p *persister) enqueue(value string) uint64 {
	p.mu.Lock()
	p.enqueued++
	seq := p.enqueued
	if p.pending != nil {
		recordSuperseded()
	}
	p.pending = &persistJob{seq: seq, value: value}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return seq
}

func (p *persister) run() {
	defer close(p.doneCh)

	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.stopCh:
			p.drain()
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		job := p.pending
		p.pending = nil
		p.mu.Unlock()

		if job == nil {
			return
		}
		p.write(job)
	}
}

// write stores one snapshot. No timeout: a stalled backend stalls only
// this goroutine, never the caller of a mutation.
func (p *persister) write(job *persistJob) {
	ctx, span := p.tracer.Start(context.Background(), "cart.persister.write",
		trace.WithAttributes(
			attribute.String("cart.storage_key", p.key),
			attribute.Int64("cart.persist.seq", int64(job.seq)),
			attribute.Int("cart.persist.bytes", len(job.value)),
		),
	)
	start := time.Now()
	err := p.kv.Set(ctx, p.key, job.value)
	recordPersist(time.Since(start).Seconds(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("cart persistence write failed",
			slog.Uint64("seq", job.seq),
			slog.String("key", p.key),
			slog.String("error", err.Error()))
	} else {
		p.logger.Debug("cart persisted",
			slog.Uint64("seq", job.seq),
			slog.Int("bytes", len(job.value)))
	}
	span.End()

	p.mu.Lock()
	p.completed = job.seq
	p.lastErr = err
	close(p.progress)
	p.progress = make(chan struct{})
	p.mu.Unlock()
}

// flush waits until every snapshot enqueued before the call has been
// written or superseded by a written one.
//
// Outputs:
//
//	error - ctx.Err() if ctx ends first, or ErrPersistFailed wrapping the
//	        storage error when the covering write failed.
func (p *persister) flush(ctx context.Context) error {
	p.mu.Lock()
	target := p.enqueued
	p.mu.Unlock()

	for {
		p.mu.Lock()
		if p.completed >= target {
			err := p.lastErr
			p.mu.Unlock()
			if err != nil && target > 0 {
				return fmt.Errorf("%w: %w", ErrPersistFailed, err)
			}
			return nil
		}
		ch := p.progress
		p.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// close writes whatever is still pending and stops the goroutine.
func (p *persister) close(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.stopCh) })

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastErr != nil && p.enqueued > 0 {
		return fmt.Errorf("%w: %w", ErrPersistFailed, p.lastErr)
	}
	return nil
}
