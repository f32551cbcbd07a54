// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-provided inputs before they reach the cart.
//
// The store accepts any non-blank product id. Ids typed on a command line
// are held to a stricter shape here so a stray control character or a
// pasted paragraph never becomes a cart line.
package validation

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxProductIDLength bounds ids accepted from user input.
const MaxProductIDLength = 128

// ValidateProductID validates a product id typed by a user.
//
// Valid ids:
//   - 1-128 characters after trimming surrounding spaces
//   - No control characters (newline, tab, escape sequences)
//
// Example:
//
//	if err := validation.ValidateProductID(id); err != nil {
//	    return fmt.Errorf("invalid product id: %w", err)
//	}
func ValidateProductID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("product id cannot be empty")
	}
	if len([]rune(trimmed)) > MaxProductIDLength {
		return fmt.Errorf("product id is longer than %d characters", MaxProductIDLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fmt.Errorf("product id %q contains a control character", trimmed)
		}
	}
	return nil
}

// SanitizeProductID trims and validates an id.
//
//	id, err := validation.SanitizeProductID(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeProductID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if err := ValidateProductID(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
