// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package currency formats monetary amounts for display.
//
// It is a pure presentation helper: the cart stores plain float64 prices
// and only the view layer turns them into strings.
package currency

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Defaults match the storefront's home market.
const (
	DefaultLocale = "pt-BR"
	DefaultCode   = "BRL"
)

// Formatter renders amounts in one locale and currency.
//
// Thread Safety: Safe for concurrent use; the printer is read-only after
// construction.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	tag     language.Tag
}

// New builds a Formatter for a BCP 47 locale and an ISO 4217 code.
//
// Inputs:
//
//	locale - e.g. "pt-BR", "en-US". Empty means DefaultLocale.
//	code - e.g. "BRL", "USD". Empty means DefaultCode.
//
// Outputs:
//
//	*Formatter - Ready to use.
//	error - Non-nil if the locale or currency code is not recognized.
func New(locale, code string) (*Formatter, error) {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	if strings.TrimSpace(code) == "" {
		code = DefaultCode
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}

	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
		tag:     tag,
	}, nil
}

// Format returns amount with the currency symbol, e.g. "R$ 25,00".
func (f *Formatter) Format(amount float64) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}

// Code returns the ISO 4217 code.
func (f *Formatter) Code() string {
	return f.unit.String()
}

// Locale returns the BCP 47 tag the formatter prints in.
func (f *Formatter) Locale() string {
	return f.tag.String()
}
