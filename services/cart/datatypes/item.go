// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the cart line item types and their wire format.
//
// A Product is what the catalog hands to the cart: everything but the
// quantity. A CartItem is a Product plus the quantity held in the cart.
// The persisted cart is a JSON array of CartItem objects:
//
//	[{"id":"p1","title":"Mug","imageUrl":"https://...","price":10,"quantity":2}]
package datatypes

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Types
// =============================================================================

// Product is a catalog entry offered to the cart.
type Product struct {
	ID       string  `json:"id" yaml:"id" validate:"notblank"`
	Title    string  `json:"title" yaml:"title"`
	ImageURL string  `json:"imageUrl" yaml:"image_url"`
	Price    float64 `json:"price" yaml:"price" validate:"finite,gte=0"`
}

// CartItem is a product together with the quantity held in the cart.
//
// Quantity is always at least 1 for an item present in a cart.
type CartItem struct {
	ID       string  `json:"id" validate:"notblank"`
	Title    string  `json:"title"`
	ImageURL string  `json:"imageUrl"`
	Price    float64 `json:"price" validate:"finite,gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

// NewCartItem builds the first line for a product, with quantity 1.
func NewCartItem(p Product) CartItem {
	return CartItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	}
}

// LineTotal returns price * quantity for this line.
func (c CartItem) LineTotal() float64 {
	return c.Price * float64(c.Quantity)
}

// =============================================================================
// Validation
// =============================================================================

// itemValidate is shared by Product and CartItem validation.
var itemValidate *validator.Validate

func init() {
	itemValidate = validator.New()
	_ = itemValidate.RegisterValidation("notblank", validateNotBlank)
	_ = itemValidate.RegisterValidation("finite", validateFinite)
}

// validateNotBlank rejects strings that are empty after trimming spaces.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateFinite rejects NaN and infinities, which JSON cannot carry.
func validateFinite(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.Float64 && fl.Field().Kind() != reflect.Float32 {
		return true
	}
	v := fl.Field().Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the product id is present and the price is a finite,
// non-negative number.
func (p Product) Validate() error {
	return itemValidate.Struct(p)
}

// Validate checks the product fields and that Quantity >= 1.
func (c CartItem) Validate() error {
	return itemValidate.Struct(c)
}

// =============================================================================
// Codec
// =============================================================================

// EncodeItems serializes a cart list to its persisted JSON form.
//
// A nil list encodes as "[]" so the stored value always parses as an array.
func EncodeItems(items []CartItem) (string, error) {
	if items == nil {
		items = []CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode cart items: %w", err)
	}
	return string(data), nil
}

// UnmarshalJSON reads a cart line. Older stored carts spell the image
// field "image_url"; it is accepted when "imageUrl" is absent. Encoding
// always writes "imageUrl".
func (c *CartItem) UnmarshalJSON(data []byte) error {
	type plain CartItem
	var aux struct {
		plain
		SnakeImageURL string `json:"image_url"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = CartItem(aux.plain)
	if c.ImageURL == "" {
		c.ImageURL = aux.SnakeImageURL
	}
	return nil
}

// DecodeItems parses a persisted cart value. It does not normalize; see
// Normalize for the duplicate and quantity rules.
func DecodeItems(raw string) ([]CartItem, error) {
	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	return items, nil
}

// Normalize enforces the cart invariants on a list read from storage.
//
// Description:
//
//	Drops entries with a blank id, merges duplicate ids into the first
//	occurrence by summing quantities, and raises quantities below 1 to 1.
//	Order of first occurrence is preserved. Non-finite or negative prices
//	are clamped to 0.
//
// Inputs:
//
//	items - Decoded list. Not modified.
//
// Outputs:
//
//	[]CartItem - Normalized copy (never nil).
//	bool - True when anything had to change.
func Normalize(items []CartItem) ([]CartItem, bool) {
	out := make([]CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	changed := false

	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			changed = true
			continue
		}
		if item.Quantity < 1 {
			item.Quantity = 1
			changed = true
		}
		if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) || item.Price < 0 {
			item.Price = 0
			changed = true
		}
		if i, ok := index[item.ID]; ok {
			out[i].Quantity += item.Quantity
			changed = true
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out, changed
}

// CloneItems returns an independent copy of a cart list.
func CloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}
