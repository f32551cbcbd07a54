// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package view derives what the cart screen shows from the cart list.
//
// # Description
//
// A View is a pure function of the store's current list plus two intents
// (increment, decrement) that are forwarded to the store unchanged. It
// holds no state of its own; every Screen call recomputes from Items().
//
// The store is injected at construction; New fails with ErrNoCart
// without one.
package view

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/GoMarketplace/services/cart/datatypes"
)

// ErrNoCart is returned by New when no cart source is wired in.
var ErrNoCart = errors.New("cart view requires a cart store")

// CartSource is the part of the cart store the view depends on.
type CartSource interface {
	Items() []datatypes.CartItem
	Increment(id string) error
	Decrement(id string) error
}

// Formatter turns an amount into a display string.
type Formatter interface {
	Format(amount float64) string
}

// plainFormatter is used when no currency formatter is provided.
type plainFormatter struct{}

func (plainFormatter) Format(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// =============================================================================
// Derived values
// =============================================================================

// ItemCount returns the total number of units across all lines.
func ItemCount(items []datatypes.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// Subtotal returns the sum of price * quantity over all lines.
func Subtotal(items []datatypes.CartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

// LineSubtotal returns price * quantity for one line.
func LineSubtotal(item datatypes.CartItem) float64 {
	return item.LineTotal()
}

// =============================================================================
// Screen model
// =============================================================================

// Line is one rendered cart row.
type Line struct {
	ID           string
	Title        string
	ImageURL     string
	UnitPrice    float64
	Quantity     int
	Subtotal     float64
	PriceText    string
	SubtotalText string
}

// Screen is everything the cart screen displays.
type Screen struct {
	Lines        []Line
	ItemCount    int
	Subtotal     float64
	SubtotalText string
}

// Empty reports whether the cart has no lines.
func (s Screen) Empty() bool {
	return len(s.Lines) == 0
}

// View binds a cart source to a formatter.
type View struct {
	source CartSource
	format Formatter
}

// New creates a View.
//
// Inputs:
//
//	source - The cart store. Must not be nil.
//	format - Currency formatter. nil falls back to "%.2f".
//
// Outputs:
//
//	*View - The view.
//	error - ErrNoCart if source is nil.
func New(source CartSource, format Formatter) (*View, error) {
	if source == nil {
		return nil, ErrNoCart
	}
	if format == nil {
		format = plainFormatter{}
	}
	return &View{source: source, format: format}, nil
}

// Screen computes the screen model from the store's current list.
func (v *View) Screen() Screen {
	return v.Build(v.source.Items())
}

// Build computes the screen model for an explicit list, such as a
// snapshot received from a store subscription.
func (v *View) Build(items []datatypes.CartItem) Screen {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		sub := LineSubtotal(item)
		lines = append(lines, Line{
			ID:           item.ID,
			Title:        item.Title,
			ImageURL:     item.ImageURL,
			UnitPrice:    item.Price,
			Quantity:     item.Quantity,
			Subtotal:     sub,
			PriceText:    v.format.Format(item.Price),
			SubtotalText: v.format.Format(sub),
		})
	}

	total := Subtotal(items)
	return Screen{
		Lines:        lines,
		ItemCount:    ItemCount(items),
		Subtotal:     total,
		SubtotalText: v.format.Format(total),
	}
}

// HandleIncrement forwards an increment tap for line id.
func (v *View) HandleIncrement(id string) error {
	return v.source.Increment(id)
}

// HandleDecrement forwards a decrement tap for line id.
func (v *View) HandleDecrement(id string) error {
	return v.source.Decrement(id)
}
