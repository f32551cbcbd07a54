// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package view

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/GoMarketplace/services/cart"
	"github.com/AleutianAI/GoMarketplace/services/cart/datatypes"
	"github.com/AleutianAI/GoMarketplace/services/cart/storage"
)

type tagFormatter struct{}

func (tagFormatter) Format(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func newStore(t *testing.T) *cart.Store {
	t.Helper()
	cfg := cart.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := cart.NewStore(storage.NewMemory(), cfg)
	require.NoError(t, err)
	require.NoError(t, s.Load(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestItemCount(t *testing.T) {
	assert.Equal(t, 0, ItemCount(nil))
	assert.Equal(t, 0, ItemCount([]datatypes.CartItem{}))
	assert.Equal(t, 5, ItemCount([]datatypes.CartItem{
		{ID: "a", Quantity: 2},
		{ID: "b", Quantity: 3},
	}))
}

func TestSubtotal(t *testing.T) {
	assert.Equal(t, 0.0, Subtotal(nil))
	assert.Equal(t, 25.0, Subtotal([]datatypes.CartItem{
		{ID: "a", Price: 10, Quantity: 2},
		{ID: "b", Price: 5, Quantity: 1},
	}))
}

func TestLineSubtotal(t *testing.T) {
	assert.Equal(t, 22.5, LineSubtotal(datatypes.CartItem{ID: "a", Price: 7.5, Quantity: 3}))
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNoCart)
}

func TestView_EmptyStore(t *testing.T) {
	v, err := New(newStore(t), nil)
	require.NoError(t, err)

	screen := v.Screen()
	assert.True(t, screen.Empty())
	assert.Equal(t, 0, screen.ItemCount)
	assert.Equal(t, "0.00", screen.SubtotalText)
}

func TestView_ScreenAndIntents(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.AddToCart(datatypes.Product{ID: "p1", Title: "Mug", Price: 10}))
	require.NoError(t, store.AddToCart(datatypes.Product{ID: "p2", Title: "Shirt", Price: 5}))
	require.NoError(t, store.AddToCart(datatypes.Product{ID: "p1", Title: "Mug", Price: 10}))

	v, err := New(store, tagFormatter{})
	require.NoError(t, err)

	screen := v.Screen()
	require.Len(t, screen.Lines, 2)
	assert.Equal(t, 3, screen.ItemCount)
	assert.Equal(t, 25.0, screen.Subtotal)
	assert.Equal(t, "$25.00", screen.SubtotalText)

	mugLine := screen.Lines[0]
	assert.Equal(t, "p1", mugLine.ID)
	assert.Equal(t, 2, mugLine.Quantity)
	assert.Equal(t, 20.0, mugLine.Subtotal)
	assert.Equal(t, "$10.00", mugLine.PriceText)
	assert.Equal(t, "$20.00", mugLine.SubtotalText)

	require.NoError(t, v.HandleIncrement("p2"))
	screen = v.Screen()
	assert.Equal(t, 2, screen.Lines[1].Quantity)
	assert.Equal(t, 30.0, screen.Subtotal)

	require.NoError(t, v.HandleDecrement("p1"))
	require.NoError(t, v.HandleDecrement("p1"))
	screen = v.Screen()
	assert.Equal(t, 1, screen.Lines[0].Quantity, "decrement stops at 1")
	assert.Equal(t, 3, screen.ItemCount)
}

func TestView_IntentAfterCloseSurfacesError(t *testing.T) {
	store := newStore(t)
	v, err := New(store, nil)
	require.NoError(t, err)

	require.NoError(t, store.Close(context.Background()))
	assert.ErrorIs(t, v.HandleIncrement("p1"), cart.ErrClosed)
}

func TestView_Build(t *testing.T) {
	v, err := New(newStore(t), tagFormatter{})
	require.NoError(t, err)

	screen := v.Build([]datatypes.CartItem{{ID: "x", Price: 1.5, Quantity: 4}})
	assert.Equal(t, 4, screen.ItemCount)
	assert.Equal(t, "$6.00", screen.SubtotalText)
}
