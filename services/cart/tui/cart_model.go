// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides the interactive cart screen.
//
// # Description
//
// CartModel is a bubbletea model over a view.View. It renders the cart
// lines with their subtotals, lets the user move a cursor between lines,
// and forwards increment and decrement keys to the view. The screen is
// refreshed from a store subscription, so changes made elsewhere in the
// process show up without polling.
//
// # Thread Safety
//
// TUI components are designed for single-threaded use within the bubbletea
// event loop. Do not access TUI state from multiple goroutines.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/GoMarketplace/services/cart/datatypes"
	"github.com/AleutianAI/GoMarketplace/services/cart/view"
)

// =============================================================================
// Messages
// =============================================================================

// CartUpdatedMsg carries a fresh list from the store subscription.
type CartUpdatedMsg struct {
	Items []datatypes.CartItem
}

// FeedClosedMsg signals that the subscription channel was closed, which
// happens when the store shuts down.
type FeedClosedMsg struct{}

// =============================================================================
// Key bindings
// =============================================================================

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Increment key.Binding
	Decrement key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Increment: key.NewBinding(
			key.WithKeys("+", "=", "right", "l"),
			key.WithHelp("+/→", "add one"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("-", "_", "left", "h"),
			key.WithHelp("-/←", "remove one"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Increment, k.Decrement, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Increment, k.Decrement},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Model
// =============================================================================

// CartModel is the bubbletea model for the cart screen.
type CartModel struct {
	view    *view.View
	updates <-chan []datatypes.CartItem

	screen view.Screen
	cursor int

	keys keyMap
	help help.Model

	width    int
	err      error
	quitting bool
}

// NewCartModel creates the cart screen model.
//
// # Inputs
//
//   - v: The cart view. Must not be nil.
//   - updates: Subscription channel from the store. May be nil, in which
//     case the screen only refreshes after its own key presses.
//
// # Outputs
//
//   - CartModel: Ready-to-use model for tea.NewProgram.
func NewCartModel(v *view.View, updates <-chan []datatypes.CartItem) CartModel {
	return CartModel{
		view:    v,
		updates: updates,
		screen:  v.Screen(),
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

// Init implements tea.Model.
func (m CartModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// waitForUpdate blocks on the subscription and turns the next list into
// a message. Each CartUpdatedMsg re-arms it.
func waitForUpdate(updates <-chan []datatypes.CartItem) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		items, ok := <-updates
		if !ok {
			return FeedClosedMsg{}
		}
		return CartUpdatedMsg{Items: items}
	}
}

// Update implements tea.Model.
func (m CartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case CartUpdatedMsg:
		m.screen = m.view.Build(msg.Items)
		m.clampCursor()
		return m, waitForUpdate(m.updates)

	case FeedClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.screen.Lines)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Increment):
			if id, ok := m.selectedID(); ok {
				m.err = m.view.HandleIncrement(id)
				m.refresh()
			}

		case key.Matches(msg, m.keys.Decrement):
			if id, ok := m.selectedID(); ok {
				m.err = m.view.HandleDecrement(id)
				m.refresh()
			}
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m CartModel) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// Screen returns the screen model currently shown.
func (m CartModel) Screen() view.Screen {
	return m.screen
}

// Cursor returns the index of the selected line.
func (m CartModel) Cursor() int {
	return m.cursor
}

// Err returns the error from the last forwarded intent, if any.
func (m CartModel) Err() error {
	return m.err
}

func (m CartModel) selectedID() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.screen.Lines) {
		return "", false
	}
	return m.screen.Lines[m.cursor].ID, true
}

// refresh re-reads the store so the key press is reflected even before
// the subscription delivers.
func (m *CartModel) refresh() {
	m.screen = m.view.Screen()
	m.clampCursor()
}

func (m *CartModel) clampCursor() {
	if m.cursor >= len(m.screen.Lines) {
		m.cursor = len(m.screen.Lines) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
