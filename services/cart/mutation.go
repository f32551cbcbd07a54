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
	"github.com/AleutianAI/GoMarketplace/services/cart/datatypes"
)

// opKind names a cart operation. The string form is the metric label.
type opKind string

const (
	opAdd       opKind = "add"
	opIncrement opKind = "increment"
	opDecrement opKind = "decrement"
)

// mutation is one recorded cart operation. Mutations issued before the
// startup load resolves are kept and replayed onto the loaded list.
type mutation struct {
	kind    opKind
	id      string
	product datatypes.Product
}

// apply runs the mutation against items and returns the new list.
//
// items is never modified; a changed list is always a fresh slice so
// snapshots already handed to subscribers stay valid.
func (m mutation) apply(items []datatypes.CartItem) ([]datatypes.CartItem, bool) {
	switch m.kind {
	case opAdd:
		return addItem(items, m.product), true
	case opIncrement:
		return incrementItem(items, m.id)
	case opDecrement:
		return decrementItem(items, m.id)
	default:
		return items, false
	}
}

func indexOf(items []datatypes.CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// addItem merges p into items: an existing id gains one unit and keeps
// its stored fields; a new id is appended with quantity 1.
func addItem(items []datatypes.CartItem, p datatypes.Product) []datatypes.CartItem {
	if i := indexOf(items, p.ID); i >= 0 {
		next := datatypes.CloneItems(items)
		next[i].Quantity++
		return next
	}
	next := make([]datatypes.CartItem, len(items), len(items)+1)
	copy(next, items)
	return append(next, datatypes.NewCartItem(p))
}

func incrementItem(items []datatypes.CartItem, id string) ([]datatypes.CartItem, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	next := datatypes.CloneItems(items)
	next[i].Quantity++
	return next, true
}

// decrementItem never takes a quantity below 1 and never removes a line.
func decrementItem(items []datatypes.CartItem, id string) ([]datatypes.CartItem, bool) {
	i := indexOf(items, id)
	if i < 0 || items[i].Quantity <= 1 {
		return items, false
	}
	next := datatypes.CloneItems(items)
	next[i].Quantity--
	return next, true
}
