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
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/GoMarketplace/services/cart/view"
)

func (m CartModel) render() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.screen.Empty() {
		b.WriteString(emptyStyle.Render("Your cart is empty."))
	} else {
		for i, line := range m.screen.Lines {
			b.WriteString(m.renderLine(line, i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderTotals())

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// =============================================================================
// Header Rendering
// =============================================================================

func (m CartModel) renderHeader() string {
	noun := "items"
	if m.screen.ItemCount == 1 {
		noun = "item"
	}
	return titleStyle.Render("Cart") +
		statsStyle.Render(fmt.Sprintf("  %d %s", m.screen.ItemCount, noun))
}

// =============================================================================
// Line Rendering
// =============================================================================

func (m CartModel) renderLine(line view.Line, selected bool) string {
	marker := "  "
	title := titleCellStyle
	if selected {
		marker = cursorStyle.Render("> ")
		title = title.Foreground(lipgloss.Color("212"))
	}

	return marker +
		title.Render(line.Title) +
		priceStyle.Render(line.PriceText) +
		qtyStyle.Render(fmt.Sprintf("x%d", line.Quantity)) +
		subtotalStyle.Render(line.SubtotalText)
}

// =============================================================================
// Totals Rendering
// =============================================================================

func (m CartModel) renderTotals() string {
	return totalLabelStyle.Render("Subtotal") + " " + totalStyle.Render(m.screen.SubtotalText)
}

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	emptyStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("241"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	titleCellStyle = lipgloss.NewStyle().
			Width(28)

	priceStyle = lipgloss.NewStyle().
			Width(14).
			Align(lipgloss.Right).
			Foreground(lipgloss.Color("245"))

	qtyStyle = lipgloss.NewStyle().
			Width(6).
			Align(lipgloss.Right).
			Bold(true)

	subtotalStyle = lipgloss.NewStyle().
			Width(14).
			Align(lipgloss.Right).
			Foreground(lipgloss.Color("42"))

	totalLabelStyle = lipgloss.NewStyle().
			Bold(true)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)
