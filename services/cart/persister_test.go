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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersister_WritesInOrderAndCoalesces(t *testing.T) {
	kv := newRecordingKV()
	p := newPersister(kv, "k", quietLogger(), nil)
	defer p.close(context.Background())

	release := kv.gateSet()

	p.enqueue("v1")
	// Wait until the writer has taken v1 and is blocked inside Set.
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.pending == nil
	}, time.Second, time.Millisecond)

	p.enqueue("v2")
	p.enqueue("v3")
	seq := p.enqueue("v4")
	assert.Equal(t, uint64(4), seq)

	release()
	require.NoError(t, p.flush(context.Background()))

	assert.Equal(t, []string{"v1", "v4"}, kv.Writes(), "superseded snapshots are skipped")
	v, found, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v4", v)
}

func TestPersister_FlushWithNothingQueued(t *testing.T) {
	p := newPersister(newRecordingKV(), "k", quietLogger(), nil)
	defer p.close(context.Background())

	require.NoError(t, p.flush(context.Background()))
}

func TestPersister_FlushReportsFailure(t *testing.T) {
	kv := newRecordingKV()
	kv.failSets(errDiskFull)
	p := newPersister(kv, "k", quietLogger(), nil)

	p.enqueue("v1")
	err := p.flush(context.Background())
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.ErrorIs(t, err, errDiskFull)

	assert.ErrorIs(t, p.close(context.Background()), ErrPersistFailed)
}

func TestPersister_CloseDrainsPending(t *testing.T) {
	kv := newRecordingKV()
	p := newPersister(kv, "k", quietLogger(), nil)

	for _, v := range []string{"a", "b", "c"} {
		p.enqueue(v)
	}
	require.NoError(t, p.close(context.Background()))
	require.NoError(t, p.close(context.Background()), "close is idempotent")

	writes := kv.Writes()
	require.NotEmpty(t, writes)
	assert.Equal(t, "c", writes[len(writes)-1])
}

func TestPersister_CloseHonorsContext(t *testing.T) {
	kv := newRecordingKV()
	release := kv.gateSet()
	p := newPersister(kv, "k", quietLogger(), nil)

	p.enqueue("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.close(ctx), context.DeadlineExceeded)

	release()
	require.NoError(t, p.close(context.Background()))
}
