// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/GoMarketplace/services/cart"
	"github.com/AleutianAI/GoMarketplace/services/cart/datatypes"
	"github.com/AleutianAI/GoMarketplace/services/cart/storage"
	"github.com/AleutianAI/GoMarketplace/services/cart/view"
)

func createTestStore(t *testing.T) *cart.Store {
	t.Helper()
	cfg := cart.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := cart.NewStore(storage.NewMemory(), cfg)
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	require.NoError(t, store.AddToCart(datatypes.Product{ID: "p1", Title: "Mug", Price: 10}))
	require.NoError(t, store.AddToCart(datatypes.Product{ID: "p2", Title: "Shirt", Price: 5}))
	return store
}

func createTestModel(t *testing.T, store *cart.Store) CartModel {
	t.Helper()
	v, err := view.New(store, nil)
	require.NoError(t, err)
	return NewCartModel(v, nil)
}

func press(m CartModel, keys ...string) CartModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(CartModel)
	}
	return m
}

func TestNewCartModel(t *testing.T) {
	m := createTestModel(t, createTestStore(t))

	assert.Equal(t, 0, m.Cursor())
	assert.Len(t, m.Screen().Lines, 2)
	assert.Equal(t, 2, m.Screen().ItemCount)
	assert.Nil(t, m.Init(), "no subscription means no command")
}

func TestCartModel_IncrementSelectedLine(t *testing.T) {
	store := createTestStore(t)
	m := createTestModel(t, store)

	m = press(m, "+", "right")

	items := store.Items()
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 4, m.Screen().ItemCount)
	assert.Equal(t, "35.00", m.Screen().SubtotalText)
}

func TestCartModel_DecrementStopsAtOne(t *testing.T) {
	store := createTestStore(t)
	m := createTestModel(t, store)

	m = press(m, "down", "-", "left")

	assert.Equal(t, 1, m.Cursor())
	assert.Equal(t, 1, store.Items()[1].Quantity)
	assert.NoError(t, m.Err())
}

func TestCartModel_CursorBounds(t *testing.T) {
	m := createTestModel(t, createTestStore(t))

	m = press(m, "up")
	assert.Equal(t, 0, m.Cursor())

	m = press(m, "j", "j", "j")
	assert.Equal(t, 1, m.Cursor())

	m = press(m, "k")
	assert.Equal(t, 0, m.Cursor())
}

func TestCartModel_Quit(t *testing.T) {
	m := createTestModel(t, createTestStore(t))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.(CartModel).View())
}

func TestCartModel_SubscriptionRefresh(t *testing.T) {
	store := createTestStore(t)
	v, err := view.New(store, nil)
	require.NoError(t, err)

	updates, cancel := store.Subscribe()
	defer cancel()
	m := NewCartModel(v, updates)

	cmd := m.Init()
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, CartUpdatedMsg{}, msg)

	// A change made outside the screen reaches it through the feed.
	require.NoError(t, store.AddToCart(datatypes.Product{ID: "p3", Title: "Hat", Price: 7}))
	items := <-updates
	next, cmd := m.Update(CartUpdatedMsg{Items: items})
	m = next.(CartModel)

	assert.NotNil(t, cmd, "feed is re-armed")
	assert.Len(t, m.Screen().Lines, 3)
	assert.Equal(t, 22.0, m.Screen().Subtotal)
}

func TestCartModel_FeedClosedQuits(t *testing.T) {
	store := createTestStore(t)
	v, err := view.New(store, nil)
	require.NoError(t, err)

	updates, _ := store.Subscribe()
	m := NewCartModel(v, updates)
	<-updates

	require.NoError(t, store.Close(context.Background()))
	msg := m.Init()()
	assert.Equal(t, FeedClosedMsg{}, msg)

	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestCartModel_ShrinkingListClampsCursor(t *testing.T) {
	m := createTestModel(t, createTestStore(t))
	m = press(m, "down")
	require.Equal(t, 1, m.Cursor())

	next, _ := m.Update(CartUpdatedMsg{Items: []datatypes.CartItem{{ID: "p1", Title: "Mug", Price: 10, Quantity: 1}}})
	m = next.(CartModel)
	assert.Equal(t, 0, m.Cursor())
}

func TestCartModel_View(t *testing.T) {
	m := createTestModel(t, createTestStore(t))
	out := m.View()

	assert.Contains(t, out, "Cart")
	assert.Contains(t, out, "2 items")
	assert.Contains(t, out, "Mug")
	assert.Contains(t, out, "Shirt")
	assert.Contains(t, out, "15.00")

	next, _ := m.Update(CartUpdatedMsg{Items: nil})
	assert.Contains(t, next.(CartModel).View(), "Your cart is empty.")
}
