// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"strings"
	"testing"
)

func TestValidateProductID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "p1", false},
		{"uuid", "0b6c1a5e-7f4e-4d3b-9a53-2f1c0e6d9b71", false},
		{"with spaces inside", "blue mug", false},
		{"unicode", "caneca-azul-ção", false},
		{"surrounding spaces", "  p1  ", false},
		{"max length", strings.Repeat("a", MaxProductIDLength), false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", MaxProductIDLength+1), true},
		{"newline", "p1\np2", true},
		{"escape", "p1\x1b[31m", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProductID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProductID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeProductID(t *testing.T) {
	got, err := SanitizeProductID("  p1 ")
	if err != nil {
		t.Fatalf("SanitizeProductID() unexpected error: %v", err)
	}
	if got != "p1" {
		t.Errorf("SanitizeProductID() = %q, want %q", got, "p1")
	}

	if _, err := SanitizeProductID("\t"); err == nil {
		t.Error("SanitizeProductID() expected error for blank id")
	}
}
