// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	f, err := New("", "")
	require.NoError(t, err)
	assert.Equal(t, "BRL", f.Code())
	assert.Equal(t, "pt-BR", f.Locale())
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("en-US", "NOPE")
	assert.Error(t, err)

	_, err = New("not a locale!!", "USD")
	assert.Error(t, err)
}

func TestFormat_IncludesSymbolAndAmount(t *testing.T) {
	f, err := New("en-US", "USD")
	require.NoError(t, err)
	out := f.Format(25)
	assert.Contains(t, out, "$")
	assert.Contains(t, out, "25")
	assert.NotEqual(t, f.Format(25), f.Format(26))
}

func TestFormat_BRL(t *testing.T) {
	f, err := New("pt-BR", "BRL")
	require.NoError(t, err)
	out := f.Format(10)
	assert.Contains(t, out, "R$")
	assert.Contains(t, out, "10")
}
